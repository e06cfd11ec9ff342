package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexaplatform/nexa-rewards/internal/api/rest/v1/handlers"
	"github.com/nexaplatform/nexa-rewards/internal/api/rest/v1/middleware"
	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/logger"
	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
	"github.com/nexaplatform/nexa-rewards/internal/service/accounts/v1/accounts"
	"github.com/nexaplatform/nexa-rewards/internal/service/cashout/v1/cashout"
	"github.com/nexaplatform/nexa-rewards/internal/service/catalog/v1/catalog"
	"github.com/nexaplatform/nexa-rewards/internal/service/idgen/v1/idgen"
	"github.com/nexaplatform/nexa-rewards/internal/service/registry/v1/registry"
	"github.com/nexaplatform/nexa-rewards/internal/service/rewards/v1/rewards"
	"github.com/nexaplatform/nexa-rewards/internal/service/secretary/v1/secretary"
	"github.com/nexaplatform/nexa-rewards/internal/storage/v1/inmem"
)

const adminPass = "test-admin-pass"

type silentNotifier struct{}

func (silentNotifier) Send(context.Context, string, string, string) error { return nil }

type testEnv struct {
	server  *httptest.Server
	client  *http.Client
	storage *inmem.Storage
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()
	log := logger.InitLog()
	st := inmem.InitStorage()
	rewardConfig := &config.RewardConfig{
		SignupBonus:   750,
		ReferralBonus: 6000,
		CodeTTL:       24 * time.Hour,
		CatalogTTL:    24 * time.Hour,
	}
	sec, err := secretary.NewSecretaryService(&config.SecretConfig{SecretKey: "test-secret"})
	require.NoError(t, err)
	gen := idgen.InitGenerator()
	ntf := silentNotifier{}

	registryService, err := registry.InitService(st, gen, rewardConfig)
	require.NoError(t, err)
	rewardsService, err := rewards.InitService(st, ntf, rewardConfig, log)
	require.NoError(t, err)
	catalogService, err := catalog.InitService(st, gen, rewardConfig)
	require.NoError(t, err)
	cashoutService, err := cashout.InitService(st, st, gen, ntf, rewardConfig, log)
	require.NoError(t, err)
	accountsService, err := accounts.InitService(st, st, sec, rewardsService, rewardConfig, log)
	require.NoError(t, err)

	urlHandler, err := handlers.InitHandlers(accountsService, registryService, rewardsService, cashoutService, catalogService, sec, &config.ServerConfig{}, log)
	require.NoError(t, err)
	tokenHandler, err := middleware.NewTokenHandler(sec, &config.SecretConfig{SecretKey: "test-secret"})
	require.NoError(t, err)
	adminHandler, err := middleware.NewAdminHandler(&config.AdminConfig{AdminPassword: adminPass})
	require.NoError(t, err)

	r := chi.NewRouter()
	publicGroup := r.Group(nil)
	publicGroup.Post("/api/user/register", urlHandler.HandleRegister())
	publicGroup.Post("/api/user/login", urlHandler.HandleLogin())
	publicGroup.Get("/api/videos", urlHandler.HandleGetVideos())
	publicGroup.Get("/api/tasks", urlHandler.HandleGetTasks())
	publicGroup.Post("/api/codes/verify", urlHandler.HandleVerifyCode())
	mainGroup := r.Group(nil)
	mainGroup.Use(tokenHandler.TokenHandle)
	mainGroup.Get("/api/user/wallet", urlHandler.HandleGetWallet())
	mainGroup.Post("/api/user/withdraw", urlHandler.HandleNewWithdrawal())
	mainGroup.Post("/api/videos/claim", urlHandler.HandleClaimWatchReward())
	adminGroup := r.Group(nil)
	adminGroup.Use(adminHandler.AdminHandle)
	adminGroup.Post("/api/admin/codes", urlHandler.HandleIssueCode())
	adminGroup.Post("/api/admin/videos", urlHandler.HandleAddVideo())
	adminGroup.Post("/api/admin/withdrawals/update", urlHandler.HandleReviewWithdrawal())

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, client: ts.Client(), storage: st}
}

func (e *testEnv) doRequest(t *testing.T, method, path, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) doAdminRequest(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Pass", adminPass)
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) issueCode(t *testing.T) string {
	t.Helper()
	resp := e.doAdminRequest(t, http.MethodPost, "/api/admin/codes", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var code modeldto.AccessCode
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&code))
	return code.Code
}

func (e *testEnv) register(t *testing.T, username, code string) string {
	t.Helper()
	body := `{"fullname":"` + username + `","email":"` + username + `@example.com","username":"` + username + `","password":"hunter22","code":"` + code + `"}`
	resp := e.doRequest(t, http.MethodPost, "/api/user/register", body, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := strings.TrimPrefix(resp.Header.Get("Authorization"), "Bearer ")
	require.NotEmpty(t, token)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupTest(t)
	env.register(t, "alice", env.issueCode(t))

	resp := env.doRequest(t, http.MethodPost, "/api/user/login", `{"username":"alice","password":"hunter22"}`, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.doRequest(t, http.MethodPost, "/api/user/login", `{"username":"alice","password":"wrong"}`, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterWithBadCode(t *testing.T) {
	env := setupTest(t)

	body := `{"fullname":"Alice","email":"alice@example.com","username":"alice","password":"hunter22","code":"NOSUCH"}`
	resp := env.doRequest(t, http.MethodPost, "/api/user/register", body, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	code := env.issueCode(t)
	env.register(t, "alice", code)
	body = `{"fullname":"Bob","email":"bob@example.com","username":"bob","password":"hunter22","code":"` + code + `"}`
	resp = env.doRequest(t, http.MethodPost, "/api/user/register", body, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestWalletRequiresToken(t *testing.T) {
	env := setupTest(t)
	token := env.register(t, "alice", env.issueCode(t))

	resp := env.doRequest(t, http.MethodGet, "/api/user/wallet", "", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.doRequest(t, http.MethodGet, "/api/user/wallet", "", token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var wallet modeldto.Wallet
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wallet))
	assert.Equal(t, 750.0, wallet.TotalBalance)
}

func TestClaimWatchRewardTwice(t *testing.T) {
	env := setupTest(t)
	token := env.register(t, "alice", env.issueCode(t))

	resp := env.doAdminRequest(t, http.MethodPost, "/api/admin/videos", `{"title":"Intro","url":"https://cdn.example.com/intro.mp4","reward":200}`)
	var video modeldto.Video
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&video))
	resp.Body.Close()

	resp = env.doRequest(t, http.MethodPost, "/api/videos/claim", `{"video_id":"`+video.ID+`"}`, token)
	var result modeldto.RewardResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.True(t, result.Rewarded)
	assert.Equal(t, 950.0, result.Balance)

	resp = env.doRequest(t, http.MethodPost, "/api/videos/claim", `{"video_id":"`+video.ID+`"}`, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.False(t, result.Rewarded)
	assert.True(t, result.AlreadyRewarded)
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	env := setupTest(t)
	token := env.register(t, "alice", env.issueCode(t))

	resp := env.doRequest(t, http.MethodPost, "/api/user/withdraw", `{"amount":10000,"bank_name":"First Bank","account_number":"79927398713"}`, token)
	resp.Body.Close()
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}

func TestWithdrawAndReview(t *testing.T) {
	env := setupTest(t)
	token := env.register(t, "alice", env.issueCode(t))

	resp := env.doRequest(t, http.MethodPost, "/api/user/withdraw", `{"amount":750,"bank_name":"First Bank","account_number":"79927398713"}`, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var withdrawal modeldto.Withdrawal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&withdrawal))
	resp.Body.Close()
	assert.Equal(t, "pending", withdrawal.Status)

	resp = env.doAdminRequest(t, http.MethodPost, "/api/admin/withdrawals/update", `{"id":"`+withdrawal.ID+`","status":"approved"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&withdrawal))
	resp.Body.Close()
	assert.Equal(t, "approved", withdrawal.Status)

	// settled requests cannot be re-reviewed
	resp = env.doAdminRequest(t, http.MethodPost, "/api/admin/withdrawals/update", `{"id":"`+withdrawal.ID+`","status":"rejected"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAdminRequiresPassword(t *testing.T) {
	env := setupTest(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/admin/codes", nil)
	require.NoError(t, err)
	resp, err := env.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerifyCode(t *testing.T) {
	env := setupTest(t)
	code := env.issueCode(t)

	resp := env.doRequest(t, http.MethodPost, "/api/codes/verify", `{"code":"`+code+`"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var validation modeldto.CodeValidation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&validation))
	resp.Body.Close()
	assert.True(t, validation.Valid)

	resp = env.doRequest(t, http.MethodPost, "/api/codes/verify", `{"code":"NOSUCH"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&validation))
	resp.Body.Close()
	assert.False(t, validation.Valid)
	assert.Equal(t, "not_found", validation.Reason)
}
