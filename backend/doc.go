// Package backend is the HTTP client of the OyGul ERP REST API.
//
// Every operation is a thin pass-through: it builds query parameters or a
// JSON body, sets the bearer header from Auth, performs one request and
// decodes the JSON response verbatim. Remote failures never surface as Go
// errors; they are returned inside Result as an *Error carrying a typed
// ErrorCode so callers (and the language model) can react to expired tokens
// or missing resources without parsing messages.
package backend
