// Package core holds the domain types shared by every layer of the assistant:
// sessions keyed by (application, user, session), immutable events carrying
// state deltas, the per-run execution context handed to agents and the
// narrower ToolContext handed to tools.
//
// Concrete storage, model providers and front ends live in their own packages
// and depend on the small interfaces declared here.
package core
