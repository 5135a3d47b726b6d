package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"tempopayroll/internal/model"
	"tempopayroll/internal/service"
)

type Handler struct {
	svc service.PayrollService
}

func NewHandler(svc service.PayrollService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /streams", h.CreateStream)
	mux.HandleFunc("GET /streams", h.ListStreams)
	mux.HandleFunc("GET /streams/{id}/balance", h.StreamBalance)
	mux.HandleFunc("POST /withdrawals", h.CreateWithdrawal)
	mux.HandleFunc("GET /withdrawals/pending", h.ListPendingWithdrawals)
	mux.HandleFunc("POST /withdrawals/complete", h.CompleteWithdrawal)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) CreateStream(w http.ResponseWriter, r *http.Request) {
	var req model.CreateStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	stream, err := h.svc.CreateStream(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, stream)
}

func (h *Handler) ListStreams(w http.ResponseWriter, r *http.Request) {
	var f model.StreamFilter
	if v := r.URL.Query().Get("business_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid_business_id")
			return
		}
		f.BusinessID = &id
	}
	if v := r.URL.Query().Get("employee_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid_employee_id")
			return
		}
		f.EmployeeID = &id
	}

	streams, err := h.svc.ListStreams(r.Context(), f)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if streams == nil {
		streams = []model.Stream{}
	}
	h.respondJSON(w, http.StatusOK, streams)
}

func (h *Handler) StreamBalance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_stream_id")
		return
	}
	balance, err := h.svc.StreamBalance(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, balance)
}

func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req model.CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	created, err := h.svc.CreateWithdrawal(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	businessID, err := uuid.Parse(r.URL.Query().Get("business_id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_business_id")
		return
	}
	pending, err := h.svc.ListPendingWithdrawals(r.Context(), businessID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pending)
}

func (h *Handler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req model.CompleteWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	settlement, err := h.svc.CompleteWithdrawal(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, settlement)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *model.ValidationError
	var insufficientErr *model.InsufficientAvailableError

	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, validationErr.Msg)
	case errors.As(err, &insufficientErr):
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":     "insufficient_available",
			"available": insufficientErr.Available.StringFixed(2),
		})
	case errors.Is(err, model.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, model.ErrConflict):
		h.respondError(w, http.StatusConflict, "conflict")
	default:
		slog.Error("request failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "internal_error")
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
