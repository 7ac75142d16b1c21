package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yoockh/jobboard/internal/models"
)

// Session is a GoTrue token response.
type Session struct {
	AccessToken  string      `json:"access_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	RefreshToken string      `json:"refresh_token"`
	User         *GoTrueUser `json:"user"`
}

func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	return time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
}

type GoTrueUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
	AppMetadata      map[string]any `json:"app_metadata"`
}

// ToModel converts u into the app identity. Role prefers the server-side
// app_metadata; user_metadata only carries the role chosen at sign-up and is
// editable by its owner, so it never authorizes anything once a profile exists.
func (u *GoTrueUser) ToModel() *models.User {
	if u == nil {
		return nil
	}
	out := &models.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
	if u.LastSignInAt != nil {
		out.LastSignInAt = *u.LastSignInAt
	}
	out.Role = roleFromMetadata(u.AppMetadata, u.UserMetadata)
	return out
}

func (u *GoTrueUser) FullName() string {
	if u == nil || u.UserMetadata == nil {
		return ""
	}
	s, _ := u.UserMetadata["full_name"].(string)
	return s
}

func roleFromMetadata(sources ...map[string]any) models.Role {
	for _, md := range sources {
		if md == nil {
			continue
		}
		if s, ok := md["role"].(string); ok {
			if r, ok := models.ParseRole(s); ok {
				return r
			}
		}
	}
	return ""
}

type SignUpParams struct {
	Email         string
	Password      string
	Data          map[string]any
	RedirectTo    string
	CodeChallenge string
}

// SignUpResult carries a session when the project auto-confirms emails,
// otherwise only the created user.
type SignUpResult struct {
	Session *Session
	User    *GoTrueUser
}

type UserUpdate struct {
	Email    string         `json:"email,omitempty"`
	Password string         `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// GoTrueClient talks to the Supabase Auth REST API.
type GoTrueClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewGoTrueClient(supabaseURL, anonKey string, hc *http.Client) *GoTrueClient {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &GoTrueClient{
		baseURL: strings.TrimRight(supabaseURL, "/") + "/auth/v1",
		apiKey:  anonKey,
		http:    hc,
	}
}

func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"password"}}, "", map[string]any{
		"email":    email,
		"password": password,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *GoTrueClient) SignUp(ctx context.Context, p SignUpParams) (*SignUpResult, error) {
	body := map[string]any{
		"email":    p.Email,
		"password": p.Password,
	}
	if len(p.Data) > 0 {
		body["data"] = p.Data
	}
	if p.CodeChallenge != "" {
		body["code_challenge"] = p.CodeChallenge
		body["code_challenge_method"] = "s256"
	}
	q := url.Values{}
	if p.RedirectTo != "" {
		q.Set("redirect_to", p.RedirectTo)
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/signup", q, "", body, &raw); err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	if s.AccessToken != "" {
		return &SignUpResult{Session: &s, User: s.User}, nil
	}

	var u GoTrueUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode signup user: %w", err)
	}
	return &SignUpResult{User: &u}, nil
}

func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", url.Values{"scope": {"local"}}, accessToken, nil, nil)
}

func (c *GoTrueClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo, codeChallenge string) error {
	body := map[string]any{"email": email}
	if codeChallenge != "" {
		body["code_challenge"] = codeChallenge
		body["code_challenge_method"] = "s256"
	}
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.do(ctx, http.MethodPost, "/recover", q, "", body, nil)
}

func (c *GoTrueClient) GetUser(ctx context.Context, accessToken string) (*GoTrueUser, error) {
	var u GoTrueUser
	if err := c.do(ctx, http.MethodGet, "/user", nil, accessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *GoTrueClient) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"pkce"}}, "", map[string]any{
		"auth_code":     code,
		"code_verifier": verifier,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *GoTrueClient) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}}, "", map[string]any{
		"refresh_token": refreshToken,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *GoTrueClient) UpdateUser(ctx context.Context, accessToken string, upd UserUpdate) (*GoTrueUser, error) {
	var u GoTrueUser
	if err := c.do(ctx, http.MethodPut, "/user", nil, accessToken, upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// VerifyOTP redeems an emailed token hash (type "recovery", "signup", ...).
func (c *GoTrueClient) VerifyOTP(ctx context.Context, typ, tokenHash string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/verify", nil, "", map[string]any{
		"type":       typ,
		"token_hash": tokenHash,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *GoTrueClient) Resend(ctx context.Context, typ, email, redirectTo string) error {
	body := map[string]any{"type": typ, "email": email}
	if redirectTo != "" {
		body["options"] = map[string]any{"email_redirect_to": redirectTo}
	}
	return c.do(ctx, http.MethodPost, "/resend", nil, "", body, nil)
}

func (c *GoTrueClient) do(ctx context.Context, method, path string, q url.Values, bearer string, in, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call auth %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read auth %s response: %w", path, err)
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		return eb.toError(resp.StatusCode)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode auth %s response: %w", path, err)
	}
	return nil
}
