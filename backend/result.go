package backend

// Result is the outcome of a backend call: the decoded JSON body on success
// or the error record.
type Result struct {
	Data any
	Err  *Error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Value returns the decoded body verbatim on success or the error record.
func (r Result) Value() any {
	if r.Err != nil {
		return r.Err.Record()
	}
	return r.Data
}

// Code returns the error code or "" on success.
func (r Result) Code() ErrorCode {
	if r.Err == nil {
		return ""
	}
	return r.Err.Code
}

func ok(data any) Result { return Result{Data: data} }

func fail(err *Error) Result { return Result{Err: err} }

func success(message string) Result {
	return ok(map[string]any{"status": "success", "message": message})
}
