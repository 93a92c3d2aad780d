package document

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/paihq/pai/internal/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *mux.Router {
	service, _, _ := setupService(t)
	handler := NewHandler(service)
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	RegisterRoutes(r, handler)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateListUpdateDelete(t *testing.T) {
	r := setupRouter(t)

	// create
	w := do(t, r, http.MethodPost, "/api/records/notes", `{"title":"plan trip","date":"2024-06-01","tags":["travel"]}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	id := created["id"].(string)
	assert.NotEmpty(t, id)

	// list
	w = do(t, r, http.MethodGet, "/api/records/notes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "plan trip", listed[0]["title"])

	// update
	w = do(t, r, http.MethodPatch, "/api/records/notes/"+id, `{"pinned":true}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pinned":true`)

	// delete
	w = do(t, r, http.MethodDelete, "/api/records/notes/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodDelete, "/api/records/notes/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_IdempotencyKeyReplayReturnsOk(t *testing.T) {
	r := setupRouter(t)
	header := http.Header{"Idempotency-Key": []string{"abc"}}
	body := `{"date":"2024-03-01","description":"salary","amount":"3000"}`

	first := do(t, r, http.MethodPost, "/api/records/incomes", body, header)
	second := do(t, r, http.MethodPost, "/api/records/incomes", body, header)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestHandler_CreateRecurring(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/records/tasks/recurring",
		`{"title":"pay rent","dueDate":"2024-01-15","recurrence":{"frequency":"quarterly","occurrences":4}}`, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var created []map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Len(t, created, 4)
}

func TestHandler_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid record", http.MethodPost, "/api/records/expenses", `{"date":"2024-03-01","description":"","amount":"1"}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/records/expenses", `{"date":`, http.StatusBadRequest},
		{"unknown kind", http.MethodGet, "/api/records/recipes", "", http.StatusNotFound},
		{"missing record", http.MethodPatch, "/api/records/notes/nope", `{"title":"x"}`, http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(t)

			w := do(t, r, tc.method, tc.path, tc.body, nil)

			assert.Equal(t, tc.status, w.Code)
			var errResponse rest.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errResponse))
			assert.NotEmpty(t, errResponse.Error)
		})
	}
}
