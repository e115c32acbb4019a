// Package session houses concrete implementations of core.SessionStore.
// The interface itself (and the Session struct) live in the core package so
// higher level packages never depend on concrete storage; only the wiring in
// cmd decides which implementation to instantiate.
package session
