package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/jobboard/internal/models"
)

func newTestGoTrue(t *testing.T, h http.HandlerFunc) *GoTrueClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGoTrueClient(srv.URL, "anon-key", srv.Client())
}

func TestSignInWithPassword(t *testing.T) {
	c := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "correct-horse" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,
			"user":{"id":"u1","email":"a@b.co","user_metadata":{"role":"employer"}}}`))
	})

	s, err := c.SignInWithPassword(context.Background(), "a@b.co", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "at", s.AccessToken)
	assert.Equal(t, models.RoleEmployer, s.User.ToModel().Role)

	_, err = c.SignInWithPassword(context.Background(), "a@b.co", "wrong")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidCredentials, CodeOf(err))
}

func TestSignUpWithoutAutoConfirm(t *testing.T) {
	c := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "http://site/auth/callback", r.URL.Query().Get("redirect_to"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s256", body["code_challenge_method"])
		assert.Equal(t, map[string]any{"role": "job_seeker"}, body["data"])

		_, _ = w.Write([]byte(`{"id":"u2","email":"s@b.co","user_metadata":{"role":"job_seeker"}}`))
	})

	res, err := c.SignUp(context.Background(), SignUpParams{
		Email:         "s@b.co",
		Password:      "longenough",
		Data:          map[string]any{"role": "job_seeker"},
		RedirectTo:    "http://site/auth/callback",
		CodeChallenge: "abc",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Session)
	require.NotNil(t, res.User)
	assert.Equal(t, "u2", res.User.ID)
}

func TestExchangeCodeForSession(t *testing.T) {
	c := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pkce", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "the-code", body["auth_code"])
		assert.Equal(t, "the-verifier", body["code_verifier"])
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":60,"user":{"id":"u1"}}`))
	})

	s, err := c.ExchangeCodeForSession(context.Background(), "the-code", "the-verifier")
	require.NoError(t, err)
	assert.Equal(t, "rt", s.RefreshToken)
}

func TestGetUserSendsBearer(t *testing.T) {
	c := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.co","app_metadata":{"role":"job_seeker"}}`))
	})

	u, err := c.GetUser(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, models.RoleJobSeeker, u.ToModel().Role)
}

func TestPKCEChallenge(t *testing.T) {
	v, ch, err := NewPKCE()
	require.NoError(t, err)
	assert.NotEmpty(t, v)
	assert.Equal(t, Challenge(v), ch)
	// RFC 7636 appendix B
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", Challenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"))
}
