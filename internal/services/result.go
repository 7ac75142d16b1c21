package services

import "github.com/yoockh/jobboard/internal/utils"

// ActionResult is the outcome of a user-triggered mutation. Failures are
// reported here instead of as errors so callers can render them directly.
type ActionResult struct {
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	Code    utils.Code `json:"code,omitempty"`
}

const (
	msgNotAuthenticated = "Not authenticated"
	msgUnknownError     = "Unknown error occurred"
)

func ok() ActionResult { return ActionResult{Success: true} }

func fail(code utils.Code, msg string) ActionResult { return ActionResult{Error: msg, Code: code} }
