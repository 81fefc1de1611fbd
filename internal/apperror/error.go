package apperror

import "errors"

type Code string

const (
	// CodeMissingParameter means a required query parameter was absent or blank.
	CodeMissingParameter Code = "missing_parameter"
	// CodeValidation means a request body failed validation.
	CodeValidation Code = "validation"
	// CodeUnauthorized means bad credentials or no valid token.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden means the caller is known but the account or vista is not enabled.
	CodeForbidden Code = "forbidden"
	// CodeNotFound means the requested employee or section does not exist.
	CodeNotFound Code = "not_found"
	// CodeInternal covers every error that carries no code of its own.
	CodeInternal Code = "internal"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// MissingParameter reports the named request parameter as required.
func MissingParameter(name string) *Error {
	return New(CodeMissingParameter, name+" is required")
}

func GetCode(err error) Code {
	if err == nil {
		return ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return CodeInternal
}
