package document

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/paihq/pai/internal/rest"
	"github.com/paihq/pai/pkg/record"
	"github.com/paihq/pai/pkg/user"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List records
// @Description Retrieve all records of a kind owned by the current user, newest first
// @Tags Records
// @Produce json
// @Param kind path string true "Record kind"
// @Success 200 {array} object
// @Failure 404 {object} rest.ErrorResponse "Unknown kind"
// @Router /api/records/{kind} [get]
// @Security BearerToken
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	kind := kindOf(r)
	docs, err := h.service.List(r.Context(), kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, RawData(docs))
}

// Create godoc
// @Summary Create a record
// @Description Store one record. A repeated Idempotency-Key returns the record created first.
// @Tags Records
// @Accept json
// @Produce json
// @Param kind path string true "Record kind"
// @Param Idempotency-Key header string false "Client generated key"
// @Success 201 {object} object
// @Success 200 {object} object "Replayed request"
// @Failure 400 {object} rest.ErrorResponse "Invalid record"
// @Router /api/records/{kind} [post]
// @Security BearerToken
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, created, err := h.service.Create(r.Context(), kindOf(r), body, r.Header.Get("Idempotency-Key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	rest.WriteJSON(w, status, doc.Data)
}

// CreateRecurring godoc
// @Summary Create recurring records
// @Description Expand the record's recurrence and store one record per date
// @Tags Records
// @Accept json
// @Produce json
// @Param kind path string true "Record kind"
// @Success 201 {array} object
// @Failure 400 {object} rest.ErrorResponse "Invalid record"
// @Router /api/records/{kind}/recurring [post]
// @Security BearerToken
func (h *Handler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	docs, err := h.service.CreateRecurring(r.Context(), kindOf(r), body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, RawData(docs))
}

// Update godoc
// @Summary Update a record
// @Description Apply a JSON merge patch to one record. Siblings of a recurrence are not touched.
// @Tags Records
// @Accept json
// @Produce json
// @Param kind path string true "Record kind"
// @Param id path string true "Record id"
// @Success 200 {object} object
// @Failure 400 {object} rest.ErrorResponse "Invalid record"
// @Failure 404 {object} rest.ErrorResponse "Record not found"
// @Router /api/records/{kind}/{id} [patch]
// @Security BearerToken
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, err := h.service.Update(r.Context(), kindOf(r), mux.Vars(r)["id"], body)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, doc.Data)
}

// Delete godoc
// @Summary Delete a record
// @Tags Records
// @Param kind path string true "Record kind"
// @Param id path string true "Record id"
// @Success 204
// @Failure 404 {object} rest.ErrorResponse "Record not found"
// @Router /api/records/{kind}/{id} [delete]
// @Security BearerToken
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), kindOf(r), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func kindOf(r *http.Request) record.Kind {
	return record.Kind(mux.Vars(r)["kind"])
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return nil, false
	}
	return body, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *record.ValidationError
	switch {
	case errors.As(err, &validationErr):
		rest.WriteError(w, http.StatusBadRequest, "Invalid record", validationErr.Error())
	case errors.Is(err, ErrUnknownKind):
		rest.WriteError(w, http.StatusNotFound, "Unknown record kind", err.Error())
	case errors.Is(err, ErrDocumentNotFound):
		rest.WriteError(w, http.StatusNotFound, "Record not found", "")
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
	default:
		log.Errorf("record request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

// RegisterRoutes mounts the record API on r.
func RegisterRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/api/records/{kind}", h.List).Methods("GET")
	r.HandleFunc("/api/records/{kind}", h.Create).Methods("POST")
	r.HandleFunc("/api/records/{kind}/recurring", h.CreateRecurring).Methods("POST")
	r.HandleFunc("/api/records/{kind}/{id}", h.Update).Methods("PATCH")
	r.HandleFunc("/api/records/{kind}/{id}", h.Delete).Methods("DELETE")
}
