// Package problemdetails implements RFC 7807 problem responses.
package problemdetails

import "fmt"

const (
	TypeInvalidRequest    = "invalid-request"
	TypeInvalidURL        = "invalid-url"
	TypeInvalidShortCode  = "invalid-short-code"
	TypeConflict          = "conflict"
	TypeNotFound          = "not-found"
	TypeGone              = "gone"
	TypeRateLimitExceeded = "rate-limit-exceeded"
	TypeServiceUnavailable = "service-unavailable"
	TypeInternalError     = "internal-error"
)

type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func New(status int, problemType, title, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   fmt.Sprintf("https://api.example.com/problems/%s", problemType),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}
