package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
	cashoutService "github.com/nexaplatform/nexa-rewards/internal/service/cashout/v1/cashout"
	cashoutErrors "github.com/nexaplatform/nexa-rewards/internal/service/cashout/v1/errors"
	catalogErrors "github.com/nexaplatform/nexa-rewards/internal/service/catalog/v1/errors"
	storageErrors "github.com/nexaplatform/nexa-rewards/internal/storage/v1/errors"
)

// codeIssueRequest carries the optional code length override.
type codeIssueRequest struct {
	Length int `json:"length,omitempty"`
}

// HandleIssueCode processes admin code minting requests.
func (h *Handler) HandleIssueCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		var request codeIssueRequest
		b, err := io.ReadAll(r.Body)
		if err == nil && len(b) > 0 {
			if err := json.Unmarshal(b, &request); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		code, err := h.registry.IssueCode(ctx, request.Length)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleIssueCode failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new access code issued, expires at %s", code.ExpiresAt))
		h.respondJSON(w, code, "HandleIssueCode")
	}
}

// HandleListCodes processes admin code listing requests.
func (h *Handler) HandleListCodes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		codes, err := h.registry.ListCodes(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleListCodes failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(codes) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.respondJSON(w, codes, "HandleListCodes")
	}
}

// HandleSweepCodes processes admin cleanup of expired and used codes.
func (h *Handler) HandleSweepCodes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		swept, err := h.registry.SweepCodes(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleSweepCodes failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respondJSON(w, map[string]int64{"swept": swept}, "HandleSweepCodes")
	}
}

// HandleAddVideo processes admin video creation requests.
func (h *Handler) HandleAddVideo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleAddVideo failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.NewVideo
		if err := json.Unmarshal(b, &request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		video, err := h.catalog.AddVideo(ctx, request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleAddVideo failed")
			h.respondCatalogError(w, err)
			return
		}
		h.respondJSON(w, video, "HandleAddVideo")
	}
}

// HandleDeleteVideo processes admin video deletion requests.
func (h *Handler) HandleDeleteVideo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		id := chi.URLParam(r, "id")
		err := h.catalog.DeleteVideo(ctx, id)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleDeleteVideo failed")
			h.respondCatalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleAddTask processes admin task creation requests.
func (h *Handler) HandleAddTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleAddTask failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.NewTask
		if err := json.Unmarshal(b, &request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		task, err := h.catalog.AddTask(ctx, request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleAddTask failed")
			h.respondCatalogError(w, err)
			return
		}
		h.respondJSON(w, task, "HandleAddTask")
	}
}

// HandleDeleteTask processes admin task deletion requests.
func (h *Handler) HandleDeleteTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		id := chi.URLParam(r, "id")
		err := h.catalog.DeleteTask(ctx, id)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleDeleteTask failed")
			h.respondCatalogError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HandleAdminWithdrawals processes admin withdrawal listing requests,
// filtered by the status query parameter, pending by default. The "all"
// filter lists every request regardless of status.
func (h *Handler) HandleAdminWithdrawals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		status := r.URL.Query().Get("status")
		if status == "" {
			status = cashoutService.StatusPending
		}
		withdrawals, err := h.cashout.GetWithdrawalsByStatus(ctx, status)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleAdminWithdrawals failed")
			var illegalStatusError *cashoutErrors.IllegalStatusError
			if errors.As(err, &illegalStatusError) {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(withdrawals) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.respondJSON(w, withdrawals, "HandleAdminWithdrawals")
	}
}

// HandleReviewWithdrawal processes admin withdrawal verdicts.
func (h *Handler) HandleReviewWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleReviewWithdrawal failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var review modeldto.WithdrawalReview
		if err := json.Unmarshal(b, &review); err != nil || review.ID == "" {
			http.Error(w, "Withdrawal identifier and status are required", http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("withdrawal review detected for %s, verdict %s", review.ID, review.Status))
		withdrawal, err := h.cashout.ReviewWithdrawal(ctx, review.ID, review.Status)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleReviewWithdrawal failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var notFoundError *storageErrors.NotFoundError
			var terminalStatusError *storageErrors.TerminalStatusError
			var illegalStatusError *cashoutErrors.IllegalStatusError
			switch {
			case errors.As(err, &contextTimeoutExceededError):
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			case errors.As(err, &notFoundError):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.As(err, &terminalStatusError):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.As(err, &illegalStatusError):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.respondJSON(w, withdrawal, "HandleReviewWithdrawal")
	}
}

// respondCatalogError maps catalog failures to status codes.
func (h *Handler) respondCatalogError(w http.ResponseWriter, err error) {
	var notFoundError *storageErrors.NotFoundError
	var illegalRewardError *catalogErrors.IllegalRewardError
	var emptyTitleError *catalogErrors.EmptyTitleError
	switch {
	case errors.As(err, &notFoundError):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &illegalRewardError), errors.As(err, &emptyTitleError):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
