package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a Supabase Auth error code.
type ErrorCode string

const (
	CodeInvalidCredentials      ErrorCode = "invalid_credentials"
	CodeEmailNotConfirmed       ErrorCode = "email_not_confirmed"
	CodeUserAlreadyExists       ErrorCode = "user_already_exists"
	CodeEmailExists             ErrorCode = "email_exists"
	CodeWeakPassword            ErrorCode = "weak_password"
	CodeOverRequestRateLimit    ErrorCode = "over_request_rate_limit"
	CodeOverEmailSendRateLimit  ErrorCode = "over_email_send_rate_limit"
	CodeSignupDisabled          ErrorCode = "signup_disabled"
	CodeUserNotFound            ErrorCode = "user_not_found"
	CodeSamePassword            ErrorCode = "same_password"
	CodeSessionExpired          ErrorCode = "session_expired"
	CodeSessionNotFound         ErrorCode = "session_not_found"
	CodeOTPExpired              ErrorCode = "otp_expired"
	CodeFlowStateNotFound       ErrorCode = "flow_state_not_found"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeEmailAddressInvalid     ErrorCode = "email_address_invalid"
	CodeBadCodeVerifier         ErrorCode = "bad_code_verifier"
	CodeUnexpectedFailure       ErrorCode = "unexpected_failure"
	CodeRequestTimeout          ErrorCode = "request_timeout"
	CodeInvalidRefreshToken     ErrorCode = "refresh_token_not_found"
	CodeRefreshTokenAlreadyUsed ErrorCode = "refresh_token_already_used"
)

// KnownErrorCodes lists every code with a dedicated message.
var KnownErrorCodes = []ErrorCode{
	CodeInvalidCredentials,
	CodeEmailNotConfirmed,
	CodeUserAlreadyExists,
	CodeEmailExists,
	CodeWeakPassword,
	CodeOverRequestRateLimit,
	CodeOverEmailSendRateLimit,
	CodeSignupDisabled,
	CodeUserNotFound,
	CodeSamePassword,
	CodeSessionExpired,
	CodeSessionNotFound,
	CodeOTPExpired,
	CodeFlowStateNotFound,
	CodeValidationFailed,
	CodeEmailAddressInvalid,
	CodeBadCodeVerifier,
	CodeUnexpectedFailure,
	CodeRequestTimeout,
	CodeInvalidRefreshToken,
	CodeRefreshTokenAlreadyUsed,
}

// Message returns the user-facing text for c. Unrecognised codes are
// returned verbatim so that free-text errors still reach the user.
func (c ErrorCode) Message() string {
	switch c {
	case CodeInvalidCredentials:
		return "Invalid email or password. Please try again."
	case CodeEmailNotConfirmed:
		return "Please verify your email address before signing in."
	case CodeUserAlreadyExists, CodeEmailExists:
		return "An account with this email already exists."
	case CodeWeakPassword:
		return "Password is too weak. Use at least 8 characters with a mix of letters and numbers."
	case CodeOverRequestRateLimit:
		return "Too many attempts. Please wait a moment and try again."
	case CodeOverEmailSendRateLimit:
		return "Too many emails requested. Please wait before trying again."
	case CodeSignupDisabled:
		return "New sign-ups are currently disabled."
	case CodeUserNotFound:
		return "No account was found for this email."
	case CodeSamePassword:
		return "Your new password must be different from the current one."
	case CodeSessionExpired, CodeSessionNotFound, CodeInvalidRefreshToken, CodeRefreshTokenAlreadyUsed:
		return "Your session has expired. Please sign in again."
	case CodeOTPExpired, CodeFlowStateNotFound, CodeBadCodeVerifier:
		return "This link is invalid or has expired. Please request a new one."
	case CodeValidationFailed, CodeEmailAddressInvalid:
		return "Please check the details you entered and try again."
	case CodeUnexpectedFailure, CodeRequestTimeout:
		return "Something went wrong on our side. Please try again."
	default:
		return string(c)
	}
}

// Known reports whether c has a dedicated message.
func (c ErrorCode) Known() bool {
	return c != "" && c.Message() != string(c)
}

// ShowsResendLink is true when the login page should offer to resend the
// verification email.
func (c ErrorCode) ShowsResendLink() bool {
	return c == CodeEmailNotConfirmed
}

// Error is a failed Supabase Auth call.
type Error struct {
	Status  int
	Code    ErrorCode
	Message string // raw message from the server
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %d %s: %s", e.Status, e.Code, e.Message)
}

// UserMessage is what the UI shows for e.
func (e *Error) UserMessage() string {
	if e.Code.Known() {
		return e.Code.Message()
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// CodeOf extracts the auth code from err, "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// UserMessage returns the display text for any error out of the gateway.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	return "Unknown error occurred"
}

// legacy GoTrue versions only send error_description
var legacyMessages = map[string]ErrorCode{
	"invalid login credentials": CodeInvalidCredentials,
	"email not confirmed":       CodeEmailNotConfirmed,
	"user already registered":   CodeUserAlreadyExists,
}

type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b errorBody) toError(status int) *Error {
	e := &Error{Status: status}

	switch {
	case b.ErrorCode != "":
		e.Code = ErrorCode(b.ErrorCode)
	default:
		if s, ok := b.Code.(string); ok && s != "" {
			e.Code = ErrorCode(s)
		}
	}

	for _, m := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if m != "" {
			e.Message = m
			break
		}
	}

	if e.Code == "" {
		if c, ok := legacyMessages[strings.ToLower(e.Message)]; ok {
			e.Code = c
		}
	}
	if e.Code == "" && status == http.StatusTooManyRequests {
		e.Code = CodeOverRequestRateLimit
	}
	if e.Code == "" {
		e.Code = ErrorCode(e.Message)
	}
	return e
}
