package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/paihq/pai/internal/config"
	"github.com/paihq/pai/internal/rest"
	"github.com/paihq/pai/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrUnauthenticated = errors.New("google account is not connected")

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

// ClientProvider returns a calendar client authorized for the user.
type ClientProvider interface {
	Client(ctx context.Context, userId int) (CalendarClient, error)
}

type GoogleAuth struct {
	repo        Repository
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(repo Repository, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/integrations/google/auth/callback",
		Scopes:       []string{gcal.CalendarEventsScope, gcal.CalendarReadonlyScope},
	}
	return &GoogleAuth{repo: repo, oauthConfig: oauthConfig}
}

// OAuthLogin godoc
// @Summary Start Google authorization
// @Description Returns the Google consent URL. After consent the browser is sent to finalUrl.
// @Tags Google
// @Produce json
// @Param finalUrl query string false "Where to redirect after the callback"
// @Success 200 {object} googleAuthRedirect
// @Router /api/integrations/google/auth/login [get]
// @Security BearerToken
func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
		return
	}

	nonce := uuid.NewString()
	if err := g.repo.StartAuth(r.Context(), userId, nonce); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}

	finalUrl := r.URL.Query().Get("finalUrl")
	log.Tracef("Redirecting to Google auth URL with nonce: %s", nonce)
	u := g.oauthConfig.AuthCodeURL(finalUrl+"|"+nonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	rest.WriteJSON(w, http.StatusOK, googleAuthRedirect{RedirectUrl: u})
}

// OAuthCallback godoc
// @Summary Google authorization callback
// @Tags Google
// @Param code query string true "Authorization code"
// @Param state query string true "finalUrl|nonce"
// @Success 302 "Redirect to finalUrl with success=true|false"
// @Router /api/integrations/google/auth/callback [get]
func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	finalUrl, nonce, found := strings.Cut(r.FormValue("state"), "|")
	if !found || nonce == "" {
		rest.WriteError(w, http.StatusBadRequest, "Invalid state", "")
		return
	}

	token, err := g.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Errorf("unable to exchange code for token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	if err := g.repo.CompleteAuth(r.Context(), nonce, token); err != nil {
		log.Errorf("unable to store Google auth token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	log.Debug("Successfully stored Google auth token for nonce: ", nonce)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

// OAuthLogout godoc
// @Summary Disconnect Google account
// @Tags Google
// @Success 204 "No Content"
// @Router /api/integrations/google/auth/logout [delete]
// @Security BearerToken
func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
		return
	}
	if err := g.repo.DeleteAuth(r.Context(), userId); err != nil {
		log.Errorf("failed to delete Google auth of user %d: %v", userId, err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *GoogleAuth) Client(ctx context.Context, userId int) (CalendarClient, error) {
	token, err := g.repo.GetToken(ctx, userId)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrUnauthenticated
	}
	// the token source refreshes expired access tokens on its own
	service, err := gcal.NewService(ctx, option.WithHTTPClient(g.oauthConfig.Client(context.Background(), token)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar client: %w", err)
	}
	return &calendarClient{service: service}, nil
}
