package stapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// APIError is a non-2xx response from the SmartThings API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func newAPIError(statusCode int, body []byte) *APIError {
	e := &APIError{
		StatusCode: statusCode,
		Message:    string(body),
	}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		e.Code = parsed.Error.Code
		e.Message = parsed.Error.Message
	}

	return e
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("smartthings api error: HTTP %d, %s: %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("smartthings api error: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsTokenError reports whether the error means the access token was
// rejected and a refresh is needed
func IsTokenError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}

	return false
}

// ErrorIsGlobal classifies an API failure: global errors abort the whole
// request, device-scoped errors are reported against the one device.
// A 4xx on a device path usually means the device rejected the command.
func ErrorIsGlobal(err error, requestWasForDevice bool) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return true
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusConflict:
		return !requestWasForDevice
	default:
		return true
	}
}

// DeviceError maps a device-scoped API failure onto a reportable enum
func DeviceError(err error) (errorEnum, detail string) {
	errorEnum = "DEVICE-UNAVAILABLE"
	detail = "device unavailable"

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		detail = apiErr.Message

		if apiErr.StatusCode == http.StatusConflict || apiErr.Code == "ConstraintViolationError" {
			errorEnum = "RESOURCE-CONSTRAINT-VIOLATION"
		}
	}

	return errorEnum, detail
}
