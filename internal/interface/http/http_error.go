package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/farmcast/pkg/errors"
)

const (
	codeInvalidRequest = "invalid_request"
	codeInternal       = "internal_error"
	codeRateLimited    = "rate_limit_exceeded"
)

// HTTPError is the transport form of a failure. Result, when set, is rendered next to the
// error object so clients still see partial progress.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Result  any
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the domain error.
func (e *HTTPError) Unwrap() error { return e.Err }

// NewHTTPError builds an HTTPError.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// WithResult attaches a body fragment rendered under "result".
func (e *HTTPError) WithResult(result any) *HTTPError {
	e.Result = result
	return e
}

func badRequest(err error) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, codeInvalidRequest, errMessage(err), err)
}

// domainError maps an apperrors code to its status. Uncoded errors become 500s.
func domainError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	if code == "" {
		code = codeInternal
	}
	return NewHTTPError(statusFor(code), code, errMessage(err), err)
}

func statusFor(code string) int {
	switch code {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound, apperrors.CodeNoWeatherHistory:
		return http.StatusNotFound
	case apperrors.CodeProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func asHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{Status: http.StatusInternalServerError, Code: codeInternal, Message: "something went wrong", Err: err}
}

func (e *HTTPError) body() gin.H {
	message := e.Message
	if message == "" {
		message = e.Error()
	}
	out := gin.H{"error": gin.H{"code": e.Code, "message": message}}
	if e.Result != nil {
		out["result"] = e.Result
	}
	return out
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func abortWithDomainError(c *gin.Context, err error) {
	abortWithError(c, domainError(err))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
