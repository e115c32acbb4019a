// Package erptool exposes the OyGul backend operations as agent tools.
//
// Each tool decodes its arguments into a typed struct, reads the caller's
// credentials (bearer token, merchant, branch, user and language) from the
// session state through core.ToolContext and returns the backend result
// verbatim: the decoded JSON on success or the uniform error record
// carrying a typed error_code. Backend failures are results, not tool errors,
// so the model can react to them (for example by calling refresh_token on
// token_expired).
package erptool
