package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/jobboard/internal/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// codeIDP accepts exactly one auth code and one password.
type codeIDP struct {
	auth.IdentityProvider
	validCode string
	verifier  string
	signInErr error
}

func (f *codeIDP) ExchangeCodeForSession(_ context.Context, code, verifier string) (*auth.Session, error) {
	f.verifier = verifier
	if code != f.validCode {
		return nil, &auth.Error{Status: 400, Code: auth.CodeFlowStateNotFound, Message: "invalid flow state"}
	}
	return &auth.Session{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600}, nil
}

func (f *codeIDP) SignInWithPassword(context.Context, string, string) (*auth.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &auth.Session{AccessToken: "at", ExpiresIn: 3600, User: &auth.GoTrueUser{ID: "u1", Email: "ann@example.com"}}, nil
}

func newAuthEngine(idp auth.IdentityProvider) *gin.Engine {
	gw := auth.NewGateway(idp, nil, auth.NewVerifier("handler-secret", "", ""), "http://site", quiet())
	h := NewAuthHandler(gw, nil, auth.CookieOptions{}, quiet())
	r := gin.New()
	r.GET("/auth/callback", h.Callback)
	r.POST("/api/auth/login", h.Login)
	return r
}

func TestCallback(t *testing.T) {
	failed := "/auth/login?" + url.Values{"error": {"Authentication failed"}}.Encode()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"valid code defaults to dashboard", "code=good", "/dashboard"},
		{"valid code honours next", "code=good&next=%2Fprofile", "/profile"},
		{"absolute next ignored", "code=good&next=https%3A%2F%2Fevil.example", "/dashboard"},
		{"protocol relative next ignored", "code=good&next=%2F%2Fevil.example", "/dashboard"},
		{"exchange failure", "code=bad", failed},
		{"missing code", "", failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthEngine(&codeIDP{validCode: "good"})
			req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+tt.query, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestCallback_UsesVerifierCookieAndSetsSession(t *testing.T) {
	idp := &codeIDP{validCode: "good"}
	r := newAuthEngine(idp)
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=good", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieCodeVerifier, Value: "v3rifier"})
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, "v3rifier", idp.verifier)
	cookies := strings.Join(w.Header().Values("Set-Cookie"), "\n")
	assert.Contains(t, cookies, auth.CookieAccessToken+"=at")
	assert.Contains(t, cookies, auth.CookieRefreshToken+"=rt")
}

func TestLogin_AuthErrorBody(t *testing.T) {
	r := newAuthEngine(&codeIDP{signInErr: &auth.Error{Status: 400, Code: auth.CodeEmailNotConfirmed}})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ann@example.com","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body AuthErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, auth.CodeEmailNotConfirmed, body.Code)
	assert.Equal(t, auth.CodeEmailNotConfirmed.Message(), body.Message)
	assert.True(t, body.ShowResend)
}

func TestLogin_SuccessReturnsUserAndRedirect(t *testing.T) {
	r := newAuthEngine(&codeIDP{})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"ann@example.com","password":"secret123","redirect_to":"/jobs"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/jobs", body.RedirectTo)
	require.NotNil(t, body.User)
	assert.Equal(t, "u1", body.User.ID)
}
