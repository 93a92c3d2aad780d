package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paihq/pai/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid          string      `json:"uid"`
	Username     string      `json:"username"`
	DisplayName  string      `json:"displayName"`
	Subscription string      `json:"subscription,omitempty"`
	Settings     SettingsDTO `json:"settings"`
}

type SettingsDTO struct {
	Timezone       string                    `json:"timezone"`
	Currency       string                    `json:"currency"`
	GoogleCalendar GoogleCalendarSettingsDTO `json:"googleCalendar"`
}

type GoogleCalendarSettingsDTO struct {
	CalendarId string `json:"calendarId"`
}

// CreatedUserDTO carries the API token, shown only once.
type CreatedUserDTO struct {
	User     UserDTO `json:"user"`
	ApiToken string  `json:"apiToken"`
}

type TokenDTO struct {
	ApiToken string `json:"apiToken"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CreateUser godoc
// @Summary Create a new user
// @Description Register a new user on a trial subscription. The API token is returned once.
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 201 {object} CreatedUserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/user [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	log.Tracef("Creating new user: %+v", dto)

	created, token, err := h.userService.CreateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, CreatedUserDTO{User: userToDTO(created), ApiToken: token})
}

// IsUsernameAvailable godoc
// @Summary Check username availability
// @Tags User
// @Produce json
// @Param username query string true "Username to check"
// @Success 200 {object} object{available=bool}
// @Router /api/user/name-availability [get]
func (h *Handler) IsUsernameAvailable(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if username == "" {
		rest.WriteError(w, http.StatusBadRequest, "Username is required", "")
		return
	}
	available, err := h.userService.IsUsernameAvailable(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// CurrentUser godoc
// @Summary Get current user
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 401 {object} rest.ErrorResponse "Not authenticated"
// @Router /api/user/current [get]
// @Security BearerToken
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	current, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(current))
}

// UpdateUser godoc
// @Summary Update current user
// @Description Update display name and settings of the current user
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/user/current [put]
// @Security BearerToken
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var dto UserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	updated, err := h.userService.UpdateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(updated))
}

// DeleteUser godoc
// @Summary Delete current user
// @Description Delete the current user together with all records
// @Tags User
// @Success 204 "No Content"
// @Router /api/user/current [delete]
// @Security BearerToken
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteCurrentUser(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RotateToken godoc
// @Summary Replace the API token
// @Description Issue a new API token; the previous one stops working immediately
// @Tags User
// @Produce json
// @Success 200 {object} TokenDTO
// @Router /api/user/current/token [post]
// @Security BearerToken
func (h *Handler) RotateToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.userService.RotateToken(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TokenDTO{ApiToken: token})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserDataInvalid):
		rest.WriteError(w, http.StatusBadRequest, "Invalid user data", err.Error())
	case errors.Is(err, ErrUserNotFound):
		rest.WriteError(w, http.StatusNotFound, "User not found", "")
	case errors.Is(err, ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
	default:
		log.Errorf("user request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func userToDTO(user User) UserDTO {
	return UserDTO{
		Uid:          user.Uid,
		Username:     user.Username,
		DisplayName:  user.DisplayName,
		Subscription: string(user.Subscription),
		Settings: SettingsDTO{
			Timezone:       user.Settings.Timezone,
			Currency:       user.Settings.Currency,
			GoogleCalendar: GoogleCalendarSettingsDTO{CalendarId: user.Settings.GoogleCalendar.CalendarId},
		},
	}
}

func dtoToUser(dto UserDTO) User {
	return User{
		Username:    dto.Username,
		DisplayName: dto.DisplayName,
		Settings: Settings{
			Timezone:       dto.Settings.Timezone,
			Currency:       dto.Settings.Currency,
			GoogleCalendar: GoogleCalendarSettings{CalendarId: dto.Settings.GoogleCalendar.CalendarId},
		},
	}
}
