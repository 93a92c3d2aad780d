package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, current *User) (*mux.Router, *UserServiceImpl) {
	t.Helper()
	service, _ := setupService(t)
	h := NewHandler(service)
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if current != nil {
				ctx = WithUser(ctx, *current)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.HandleFunc("/api/user", h.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/name-availability", h.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user/current", h.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user/current", h.UpdateUser).Methods("PUT")
	r.HandleFunc("/api/user/current", h.DeleteUser).Methods("DELETE")
	r.HandleFunc("/api/user/current/token", h.RotateToken).Methods("POST")
	return r, service
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateUser(t *testing.T) {
	t.Run("should return user and token", func(t *testing.T) {
		// given
		r, service := setupRouter(t, nil)

		// when
		w := serve(r, http.MethodPost, "/api/user", `{"username":"alice","displayName":"Alice","settings":{"timezone":"Europe/Warsaw","currency":"PLN"}}`)

		// then
		require.Equal(t, http.StatusCreated, w.Code)
		var dto CreatedUserDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, "alice", dto.User.Username)
		assert.Equal(t, "trialing", dto.User.Subscription)
		assert.Equal(t, "PLN", dto.User.Settings.Currency)
		_, err := service.Authenticate(context.Background(), dto.ApiToken)
		assert.NoError(t, err)
	})

	t.Run("should reject invalid body", func(t *testing.T) {
		r, _ := setupRouter(t, nil)

		w := serve(r, http.MethodPost, "/api/user", `{"username":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should reject missing display name", func(t *testing.T) {
		r, _ := setupRouter(t, nil)

		w := serve(r, http.MethodPost, "/api/user", `{"username":"alice"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_IsUsernameAvailable(t *testing.T) {
	r, _ := setupRouter(t, nil)
	require.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/api/user", `{"username":"alice","displayName":"Alice"}`).Code)

	w := serve(r, http.MethodGet, "/api/user/name-availability?username=alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available":false}`, w.Body.String())

	w = serve(r, http.MethodGet, "/api/user/name-availability?username=bob", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available":true}`, w.Body.String())
}

func TestHandler_CurrentUser(t *testing.T) {
	t.Run("should be unauthorized without user", func(t *testing.T) {
		r, _ := setupRouter(t, nil)

		w := serve(r, http.MethodGet, "/api/user/current", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should update, rotate token and delete", func(t *testing.T) {
		// given
		current := &User{}
		r, service := setupRouter(t, current)
		created, _, err := service.CreateUser(context.Background(), newUser("alice"))
		require.NoError(t, err)
		*current = created

		// get
		w := serve(r, http.MethodGet, "/api/user/current", "")
		require.Equal(t, http.StatusOK, w.Code)
		var dto UserDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, created.Uid, dto.Uid)

		// update
		w = serve(r, http.MethodPut, "/api/user/current", `{"displayName":"Alice A.","settings":{"timezone":"UTC","currency":"EUR"}}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, "Alice A.", dto.DisplayName)
		assert.Equal(t, "EUR", dto.Settings.Currency)

		// rotate
		w = serve(r, http.MethodPost, "/api/user/current/token", "")
		require.Equal(t, http.StatusOK, w.Code)
		var token TokenDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&token))
		_, err = service.Authenticate(context.Background(), token.ApiToken)
		assert.NoError(t, err)

		// delete
		w = serve(r, http.MethodDelete, "/api/user/current", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = serve(r, http.MethodGet, "/api/user/current", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
