// Package handlers provides API endpoint handling functionality.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	handlersErrors "github.com/nexaplatform/nexa-rewards/internal/api/rest/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
	"github.com/nexaplatform/nexa-rewards/internal/service/accounts/v1"
	accountsErrors "github.com/nexaplatform/nexa-rewards/internal/service/accounts/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/service/cashout/v1"
	cashoutErrors "github.com/nexaplatform/nexa-rewards/internal/service/cashout/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/service/catalog/v1"
	"github.com/nexaplatform/nexa-rewards/internal/service/registry/v1"
	"github.com/nexaplatform/nexa-rewards/internal/service/rewards/v1"
	"github.com/nexaplatform/nexa-rewards/internal/service/secretary/v1"
	storageErrors "github.com/nexaplatform/nexa-rewards/internal/storage/v1/errors"
)

const requestTimeout = 500 * time.Millisecond

// Handler defines attributes of a struct available to its methods.
type Handler struct {
	accounts     accounts.Accounts
	registry     registry.Registry
	rewards      rewards.Rewards
	cashout      cashout.Cashout
	catalog      catalog.Catalog
	secretary    secretary.Secretary
	serverConfig *config.ServerConfig
	log          *zerolog.Logger
}

// InitHandlers initializes a handler object.
func InitHandlers(acc accounts.Accounts, reg registry.Registry, rew rewards.Rewards, csh cashout.Cashout, cat catalog.Catalog, sec secretary.Secretary, serverConfig *config.ServerConfig, log *zerolog.Logger) (*Handler, error) {
	if acc == nil || reg == nil || rew == nil || csh == nil || cat == nil || sec == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil service was passed to handlers initializer"}
	}
	return &Handler{
		accounts:     acc,
		registry:     reg,
		rewards:      rew,
		cashout:      csh,
		catalog:      cat,
		secretary:    sec,
		serverConfig: serverConfig,
		log:          log,
	}, nil
}

// getUsername extracts the authenticated username from the bearer token.
func (h *Handler) getUsername(r *http.Request) (string, error) {
	tokenString := strings.Replace(r.Header.Get("Authorization"), "Bearer ", "", 1)
	return h.secretary.ValidateToken(tokenString)
}

// HandleRegister processes user signup requests.
func (h *Handler) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleRegister failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.SignupRequest
		err = json.Unmarshal(b, &request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleRegister failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new signup request detected for %s", request.Username))
		accessToken, err := h.accounts.SignUp(ctx, request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleRegister failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var alreadyExistsError *storageErrors.AlreadyExistsError
			var notFoundError *storageErrors.NotFoundError
			var codeAlreadyUsedError *storageErrors.CodeAlreadyUsedError
			var codeExpiredError *storageErrors.CodeExpiredError
			var validationError *accountsErrors.ValidationError
			switch {
			case errors.As(err, &contextTimeoutExceededError):
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			case errors.As(err, &validationError):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.As(err, &alreadyExistsError), errors.As(err, &codeAlreadyUsedError), errors.As(err, &codeExpiredError):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.As(err, &notFoundError):
				http.Error(w, err.Error(), http.StatusNotFound)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Authorization", "Bearer "+accessToken)
		w.WriteHeader(http.StatusOK)
	}
}

// HandleLogin processes user login requests.
func (h *Handler) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLogin failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.LoginRequest
		err = json.Unmarshal(b, &request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLogin failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if request.Username == "" || request.Password == "" {
			http.Error(w, "Empty values are not allowed", http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new login request detected for %s", request.Username))
		accessToken, err := h.accounts.LoginUser(ctx, request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleLogin failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var notFoundError *storageErrors.NotFoundError
			var wrongCredentialsError *accountsErrors.WrongCredentialsError
			switch {
			case errors.As(err, &contextTimeoutExceededError):
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			case errors.As(err, &notFoundError), errors.As(err, &wrongCredentialsError):
				w.WriteHeader(http.StatusUnauthorized)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Authorization", "Bearer "+accessToken)
		w.WriteHeader(http.StatusOK)
	}
}

// HandleGetWallet processes wallet query requests.
func (h *Handler) HandleGetWallet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		username, err := h.getUsername(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetWallet failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		wallet, err := h.accounts.GetWallet(ctx, username)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetWallet failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respondJSON(w, wallet, "HandleGetWallet")
	}
}

// HandleGetProfile processes profile query requests.
func (h *Handler) HandleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		username, err := h.getUsername(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetProfile failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		profile, err := h.accounts.GetProfile(ctx, username)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetProfile failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respondJSON(w, profile, "HandleGetProfile")
	}
}

// HandleUpdateProfile processes profile update requests.
func (h *Handler) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		username, err := h.getUsername(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleUpdateProfile failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleUpdateProfile failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var update modeldto.ProfileUpdate
		err = json.Unmarshal(b, &update)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleUpdateProfile failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		profile, err := h.accounts.UpdateProfile(ctx, username, update)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleUpdateProfile failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respondJSON(w, profile, "HandleUpdateProfile")
	}
}

// HandleGetTransactions processes ledger query requests.
func (h *Handler) HandleGetTransactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		username, err := h.getUsername(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetTransactions failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		transactions, err := h.accounts.GetTransactions(ctx, username)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetTransactions failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(transactions) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.respondJSON(w, transactions, "HandleGetTransactions")
	}
}

// HandleGetWalletLogs processes wallet movement query requests.
func (h *Handler) HandleGetWalletLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		username, err := h.getUsername(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetWalletLogs failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		logs, err := h.accounts.GetWalletLogs(ctx, username)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetWalletLogs failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(logs) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.respondJSON(w, logs, "HandleGetWalletLogs")
	}
}

// HandleNewWithdrawal processes new withdrawal requests.
func (h *Handler) HandleNewWithdrawal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		username, err := h.getUsername(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleNewWithdrawal failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleNewWithdrawal failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.NewWithdrawal
		err = json.Unmarshal(b, &request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleNewWithdrawal failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Info().Msg(fmt.Sprintf("new withdrawal request detected for %s", username))
		withdrawal, err := h.cashout.RequestWithdrawal(ctx, username, request)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleNewWithdrawal failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var notEnoughFundsError *storageErrors.NotEnoughFundsError
			var illegalAccountNumberError *cashoutErrors.IllegalAccountNumberError
			var illegalAmountError *cashoutErrors.IllegalAmountError
			switch {
			case errors.As(err, &contextTimeoutExceededError):
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			case errors.As(err, &notEnoughFundsError):
				http.Error(w, err.Error(), http.StatusPaymentRequired)
			case errors.As(err, &illegalAccountNumberError), errors.As(err, &illegalAmountError):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		h.respondJSON(w, withdrawal, "HandleNewWithdrawal")
	}
}

// HandleGetWithdrawals processes withdrawals query requests.
func (h *Handler) HandleGetWithdrawals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		username, err := h.getUsername(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetWithdrawals failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		withdrawals, err := h.cashout.GetWithdrawals(ctx, username)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetWithdrawals failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if len(withdrawals) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.respondJSON(w, withdrawals, "HandleGetWithdrawals")
	}
}

// HandleGetVideos processes public video listing requests.
func (h *Handler) HandleGetVideos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		videos, err := h.catalog.GetVideos(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetVideos failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respondJSON(w, videos, "HandleGetVideos")
	}
}

// HandleGetTasks processes public task listing requests.
func (h *Handler) HandleGetTasks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		tasks, err := h.catalog.GetTasks(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetTasks failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respondJSON(w, tasks, "HandleGetTasks")
	}
}

// HandleVerifyCode processes access code pre-checks.
func (h *Handler) HandleVerifyCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleVerifyCode failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.AccessCode
		err = json.Unmarshal(b, &request)
		if err != nil || request.Code == "" {
			http.Error(w, "Code is required", http.StatusBadRequest)
			return
		}
		validation, err := h.registry.ValidateCode(ctx, request.Code)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleVerifyCode failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.respondJSON(w, validation, "HandleVerifyCode")
	}
}

// HandleClaimWatchReward processes video watch reward claims.
func (h *Handler) HandleClaimWatchReward() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		username, err := h.getUsername(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleClaimWatchReward failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleClaimWatchReward failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.ClaimRequest
		err = json.Unmarshal(b, &request)
		if err != nil || request.VideoID == "" {
			http.Error(w, "Video identifier is required", http.StatusBadRequest)
			return
		}
		result, err := h.rewards.ClaimWatchReward(ctx, username, request.VideoID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleClaimWatchReward failed")
			h.respondRewardError(w, err)
			return
		}
		h.respondJSON(w, result, "HandleClaimWatchReward")
	}
}

// HandleCompleteTask processes task completion reward claims.
func (h *Handler) HandleCompleteTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		username, err := h.getUsername(r)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleCompleteTask failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		b, err := io.ReadAll(r.Body)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleCompleteTask failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var request modeldto.CompleteRequest
		err = json.Unmarshal(b, &request)
		if err != nil || request.TaskID == "" {
			http.Error(w, "Task identifier is required", http.StatusBadRequest)
			return
		}
		result, err := h.rewards.CompleteTask(ctx, username, request.TaskID)
		if err != nil {
			h.log.Error().Err(err).Msg("HandleCompleteTask failed")
			h.respondRewardError(w, err)
			return
		}
		h.respondJSON(w, result, "HandleCompleteTask")
	}
}

// respondRewardError maps reward claim failures to status codes.
func (h *Handler) respondRewardError(w http.ResponseWriter, err error) {
	var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
	var notFoundError *storageErrors.NotFoundError
	switch {
	case errors.As(err, &contextTimeoutExceededError):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.As(err, &notFoundError):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondJSON marshals a payload and writes it with a 200 status.
func (h *Handler) respondJSON(w http.ResponseWriter, payload interface{}, op string) {
	resBody, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg(op + " failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(resBody)
	if err != nil {
		h.log.Error().Err(err).Msg(op + " failed")
	}
}
