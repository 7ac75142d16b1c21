package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/models"
)

// IdentityProvider is the subset of Supabase Auth the app consumes.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, p SignUpParams) (*SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo, codeChallenge string) error
	GetUser(ctx context.Context, accessToken string) (*GoTrueUser, error)
	ExchangeCodeForSession(ctx context.Context, code, verifier string) (*Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	UpdateUser(ctx context.Context, accessToken string, upd UserUpdate) (*GoTrueUser, error)
	VerifyOTP(ctx context.Context, typ, tokenHash string) (*Session, error)
	Resend(ctx context.Context, typ, email, redirectTo string) error
}

// ProfileEnsurer creates the profile row for an identity if it is missing.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, u *models.User, fullName string) error
}

// RoleStore reports the role recorded on a user's profile. A user without a
// profile yields an empty role and a nil error.
type RoleStore interface {
	StoredRole(ctx context.Context, userID string) (models.Role, error)
}

type SignUpInput struct {
	Email    string
	Password string
	Role     models.Role
	FullName string
}

type SignUpOutcome struct {
	User    *models.User
	Session *Session // nil until the email is confirmed
	// Verifier must be kept (cookie) until /auth/callback redeems the code.
	Verifier string
}

// Gateway is the single entry point for authentication. One instance is built
// at startup and shared by the JSON API and the pages.
type Gateway struct {
	idp      IdentityProvider
	profiles ProfileEnsurer
	roles    RoleStore
	verifier *Verifier
	siteURL  string
	log      *logrus.Logger
}

func NewGateway(idp IdentityProvider, profiles ProfileEnsurer, verifier *Verifier, siteURL string, log *logrus.Logger) *Gateway {
	if log == nil {
		log = logrus.New()
	}
	return &Gateway{
		idp:      idp,
		profiles: profiles,
		verifier: verifier,
		siteURL:  strings.TrimRight(siteURL, "/"),
		log:      log,
	}
}

// WithRoles makes GetSession authorize with the stored profile role instead of
// the token's metadata.
func (g *Gateway) WithRoles(rs RoleStore) *Gateway {
	g.roles = rs
	return g
}

func (g *Gateway) SignIn(ctx context.Context, email, password string) (*Session, error) {
	s, err := g.idp.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, err
	}
	g.ensureProfile(ctx, s.User)
	return s, nil
}

// SignUp creates the identity, then the profile row. A failed profile write is
// logged and left for EnsureProfile on the next sign-in or callback.
func (g *Gateway) SignUp(ctx context.Context, in SignUpInput) (*SignUpOutcome, error) {
	if !in.Role.Valid() {
		return nil, &Error{Status: 400, Code: CodeValidationFailed, Message: "invalid role"}
	}

	verifier, challenge, err := NewPKCE()
	if err != nil {
		return nil, err
	}

	data := map[string]any{"role": string(in.Role)}
	if in.FullName != "" {
		data["full_name"] = in.FullName
	}

	res, err := g.idp.SignUp(ctx, SignUpParams{
		Email:         strings.TrimSpace(in.Email),
		Password:      in.Password,
		Data:          data,
		RedirectTo:    g.callbackURL("/dashboard"),
		CodeChallenge: challenge,
	})
	if err != nil {
		return nil, err
	}

	out := &SignUpOutcome{Session: res.Session, Verifier: verifier}
	if res.User != nil {
		out.User = res.User.ToModel()
		if out.User.Role == "" {
			out.User.Role = in.Role
		}
		if g.profiles != nil {
			if err := g.profiles.EnsureProfile(ctx, out.User, in.FullName); err != nil {
				g.log.WithError(err).WithField("user_id", out.User.ID).Error("profile creation failed after sign-up")
			}
		}
	}
	return out, nil
}

func (g *Gateway) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return g.idp.SignOut(ctx, accessToken)
}

// ResetPassword mails a recovery link that lands on /auth/reset-password
// through the callback. The returned verifier belongs in a cookie.
func (g *Gateway) ResetPassword(ctx context.Context, email string) (string, error) {
	verifier, challenge, err := NewPKCE()
	if err != nil {
		return "", err
	}
	redirect := g.callbackURL("/auth/reset-password")
	if err := g.idp.ResetPasswordForEmail(ctx, strings.TrimSpace(email), redirect, challenge); err != nil {
		return "", err
	}
	return verifier, nil
}

func (g *Gateway) UpdatePassword(ctx context.Context, accessToken, password string) error {
	if accessToken == "" {
		return &Error{Status: 401, Code: CodeSessionNotFound}
	}
	_, err := g.idp.UpdateUser(ctx, accessToken, UserUpdate{Password: password})
	return err
}

func (g *Gateway) ResendVerification(ctx context.Context, email string) error {
	return g.idp.Resend(ctx, "signup", strings.TrimSpace(email), g.callbackURL("/dashboard"))
}

// GetUser asks Supabase who owns accessToken. Any failure yields nil.
func (g *Gateway) GetUser(ctx context.Context, accessToken string) *models.User {
	if accessToken == "" {
		return nil
	}
	u, err := g.idp.GetUser(ctx, accessToken)
	if err != nil {
		g.log.WithError(err).Debug("get user failed")
		return nil
	}
	return u.ToModel()
}

// GetSession verifies accessToken locally and resolves the caller. With a
// RoleStore the role is the one on the profile; a user without a profile, or
// one whose profile cannot be read, gets no role. Any token failure yields nil.
func (g *Gateway) GetSession(ctx context.Context, accessToken string) *models.User {
	if accessToken == "" || g.verifier == nil {
		return nil
	}
	c, err := g.verifier.Verify(accessToken)
	if err != nil {
		return nil
	}
	u := c.User()
	if g.roles == nil {
		return u
	}
	role, err := g.roles.StoredRole(ctx, u.ID)
	if err != nil {
		g.log.WithError(err).WithField("user_id", u.ID).Warn("stored role lookup failed")
		role = ""
	}
	u.Role = role
	return u
}

// ExchangeCode redeems an auth code from an email link.
func (g *Gateway) ExchangeCode(ctx context.Context, code, verifier string) (*Session, error) {
	if code == "" {
		return nil, &Error{Status: 400, Code: CodeFlowStateNotFound, Message: "missing code"}
	}
	s, err := g.idp.ExchangeCodeForSession(ctx, code, verifier)
	if err != nil {
		return nil, err
	}
	g.ensureProfile(ctx, s.User)
	return s, nil
}

// VerifyRecovery redeems a recovery token hash from /auth/reset-password?token.
func (g *Gateway) VerifyRecovery(ctx context.Context, tokenHash string) (*Session, error) {
	return g.idp.VerifyOTP(ctx, "recovery", tokenHash)
}

func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, errors.New("missing refresh token")
	}
	return g.idp.RefreshSession(ctx, refreshToken)
}

func (g *Gateway) ensureProfile(ctx context.Context, gu *GoTrueUser) {
	if gu == nil || g.profiles == nil {
		return
	}
	u := gu.ToModel()
	if !u.Role.Valid() {
		return
	}
	if err := g.profiles.EnsureProfile(ctx, u, gu.FullName()); err != nil {
		g.log.WithError(err).WithField("user_id", u.ID).Warn("ensure profile failed")
	}
}

func (g *Gateway) callbackURL(next string) string {
	return g.siteURL + "/auth/callback?" + url.Values{"next": {next}}.Encode()
}
