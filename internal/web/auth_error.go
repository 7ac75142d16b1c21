package web

import "github.com/yoockh/jobboard/internal/auth"

// AuthErrorView is what the auth pages show for an ?error=<code> parameter.
type AuthErrorView struct {
	Code       auth.ErrorCode
	Message    string
	ShowResend bool
	Email      string
}

// NewAuthErrorView maps code to its message. Unknown codes (including free
// text such as "Authentication failed") are shown verbatim; an empty code
// yields nil so nothing is rendered.
func NewAuthErrorView(code, email string) *AuthErrorView {
	if code == "" {
		return nil
	}
	ec := auth.ErrorCode(code)
	return &AuthErrorView{
		Code:       ec,
		Message:    ec.Message(),
		ShowResend: ec.ShowsResendLink(),
		Email:      email,
	}
}

func errorCodeOf(err error) string {
	if c := auth.CodeOf(err); c != "" {
		return string(c)
	}
	return string(auth.CodeUnexpectedFailure)
}
