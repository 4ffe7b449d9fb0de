package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultRetryableStatuses are the HTTP status codes retried by default:
// request timeout, rate limiting, and transient upstream failures.
func DefaultRetryableStatuses() []int {
	return []int{
		http.StatusRequestTimeout,     // 408
		http.StatusTooManyRequests,    // 429
		http.StatusBadGateway,         // 502
		http.StatusServiceUnavailable, // 503
		http.StatusGatewayTimeout,     // 504
	}
}

// statusMessages maps HTTP status codes to user-facing failure
// descriptions, used when the response body carries no message of its
// own.
var statusMessages = map[int]string{
	http.StatusBadRequest:            "Invalid request. Please check your input.",
	http.StatusUnauthorized:          "Authentication required. Please log in again.",
	http.StatusForbidden:             "You do not have permission to perform this action.",
	http.StatusNotFound:              "The requested resource was not found.",
	http.StatusRequestTimeout:        "The request timed out. Please try again.",
	http.StatusRequestEntityTooLarge: "The request payload is too large.",
	http.StatusTooManyRequests:       "Too many requests. Please slow down and try again.",
	http.StatusInternalServerError:   "An internal server error occurred. Please try again later.",
	http.StatusBadGateway:            "The server returned an invalid response. Please try again.",
	http.StatusServiceUnavailable:    "The service is temporarily unavailable. Please try again later.",
	http.StatusGatewayTimeout:        "The server took too long to respond. Please try again.",
}

// networkErrorMessage is the user-facing description for connection-level
// failures with no HTTP response.
const networkErrorMessage = "A network error occurred. Please check your connection."

// MessageForStatus returns the user-facing description for an HTTP
// status code, with a numeric fallback for codes not in the table.
func MessageForStatus(statusCode int) string {
	if msg, ok := statusMessages[statusCode]; ok {
		return msg
	}
	return fmt.Sprintf("Request failed with status %d.", statusCode)
}

// errorBody is the conventional shape of JSON error responses. Either
// field may carry the failure description; "error" wins when both are
// present.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// resolveErrorMessage extracts a human-readable failure description from
// a non-success response body, falling back to the status message table
// when the body is empty, unparsable, or carries no message field.
func resolveErrorMessage(statusCode int, body []byte) string {
	if len(body) > 0 {
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err == nil {
			if eb.Error != "" {
				return eb.Error
			}
			if eb.Message != "" {
				return eb.Message
			}
		}
	}
	return MessageForStatus(statusCode)
}
