package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/paihq/pai/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newAuth(repo Repository) *GoogleAuth {
	cfg := config.Defaults()
	cfg.Host = "https://pai.example.com"
	cfg.Google.ClientId = "client-id"
	return NewGoogleAuth(repo, cfg)
}

func TestGoogleAuth_OAuthLogin(t *testing.T) {
	// given
	repo := NewRepositoryStub()
	auth := newAuth(repo)
	req := httptest.NewRequest(http.MethodGet, "/api/integrations/google/auth/login?finalUrl=https://app.example.com/settings", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	// when
	auth.OAuthLogin(w, req)

	// then
	require.Equal(t, http.StatusOK, w.Code)
	var redirect googleAuthRedirect
	require.NoError(t, json.NewDecoder(w.Body).Decode(&redirect))
	u, err := url.Parse(redirect.RedirectUrl)
	require.NoError(t, err)
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
	assert.Equal(t, "https://pai.example.com/api/integrations/google/auth/callback", u.Query().Get("redirect_uri"))
	finalUrl, nonce, found := strings.Cut(u.Query().Get("state"), "|")
	require.True(t, found)
	assert.Equal(t, "https://app.example.com/settings", finalUrl)

	require.NoError(t, repo.CompleteAuth(context.Background(), nonce, &oauth2.Token{AccessToken: "access"}))
	token, err := repo.GetToken(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)
}

func TestGoogleAuth_OAuthLoginRequiresUser(t *testing.T) {
	auth := newAuth(NewRepositoryStub())
	w := httptest.NewRecorder()

	auth.OAuthLogin(w, httptest.NewRequest(http.MethodGet, "/api/integrations/google/auth/login", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoogleAuth_OAuthCallbackRejectsMalformedState(t *testing.T) {
	auth := newAuth(NewRepositoryStub())
	w := httptest.NewRecorder()

	auth.OAuthCallback(w, httptest.NewRequest(http.MethodGet, "/api/integrations/google/auth/callback?code=abc&state=nonce-only", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleAuth_OAuthLogout(t *testing.T) {
	// given
	repo := NewRepositoryStub()
	require.NoError(t, repo.StartAuth(ctx, 3, "n1"))
	require.NoError(t, repo.CompleteAuth(ctx, "n1", &oauth2.Token{AccessToken: "access"}))
	auth := newAuth(repo)
	w := httptest.NewRecorder()

	// when
	auth.OAuthLogout(w, httptest.NewRequest(http.MethodDelete, "/api/integrations/google/auth/logout", nil).WithContext(ctx))

	// then
	assert.Equal(t, http.StatusNoContent, w.Code)
	token, err := repo.GetToken(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, token)
	_, err = auth.Client(ctx, 3)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
