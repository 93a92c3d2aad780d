package google

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paihq/pai/internal/rest"
	log "github.com/sirupsen/logrus"
)

type CalendarItemDto struct {
	Id      string `json:"id"`
	Summary string `json:"summary"`
}

type Handler struct {
	service Service
}

func NewHandler(s Service) *Handler {
	return &Handler{s}
}

// ListCalendars godoc
// @Summary List Google calendars
// @Description Calendars of the connected Google account, to pick the export target from
// @Tags Google
// @Produce json
// @Success 200 {array} CalendarItemDto
// @Failure 403 {object} rest.ErrorResponse "Google account not connected"
// @Router /api/integrations/google/calendars [get]
// @Security BearerToken
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.service.ListCalendars(r.Context())
	if errors.Is(err, ErrUnauthenticated) {
		rest.WriteError(w, http.StatusForbidden, "Google account not connected", "")
		return
	}
	if err != nil {
		log.Errorf("failed to list Google calendars: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to list calendars", "")
		return
	}
	items := make([]CalendarItemDto, 0, len(calendars))
	for _, c := range calendars {
		items = append(items, CalendarItemDto{Id: c.ID, Summary: c.Summary})
	}
	rest.WriteJSON(w, http.StatusOK, items)
}

func RegisterRoutes(r *mux.Router, auth *GoogleAuth, h *Handler) {
	r.HandleFunc("/api/integrations/google/auth/login", auth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/callback", auth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/integrations/google/auth/logout", auth.OAuthLogout).Methods("DELETE")
	r.HandleFunc("/api/integrations/google/calendars", h.ListCalendars).Methods("GET")
}
