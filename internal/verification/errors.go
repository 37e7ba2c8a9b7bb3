package verification

import "fmt"

// Error wraps a stable Code with an optional human-readable detail for
// logs. Over the wire callers see only Code, except for settle_error,
// whose /settle response carries "settle_error: <detail>".
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func newError(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// CodeOf extracts the stable Code from err, falling back to
// CodeUnexpectedVerifyError for anything that isn't a *Error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if verr, ok := err.(*Error); ok {
		return verr.Code
	}
	return CodeUnexpectedVerifyError
}
