package errors

import "errors"

// Codes shared by the domain services and mapped to transport statuses by the HTTP layer.
const (
	CodeInvalidInput         = "invalid_input"
	CodeProviderError        = "provider_error"
	CodeNoCurrentDayData     = "no_current_day_data"
	CodeStoreError           = "store_error"
	CodeNotificationDelivery = "notification_delivery_error"
	CodeNoWeatherHistory     = "no_weather_history"
	CodeCalculationFailed    = "calculation_failed"
	CodeNotFound             = "not_found"
)

// AppError tags an error with one of the codes above.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// Wrap tags err with code. err may be nil when the failure originates here.
func Wrap(code, message string, err error) error {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost AppError in the chain, or "" when none is present.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether the outermost AppError of err carries code.
func IsCode(err error, code string) bool {
	return code != "" && CodeOf(err) == code
}
