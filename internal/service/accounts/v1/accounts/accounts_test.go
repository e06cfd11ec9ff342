package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/logger"
	"github.com/nexaplatform/nexa-rewards/internal/models/modeldto"
	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
	serviceErrors "github.com/nexaplatform/nexa-rewards/internal/service/accounts/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/service/cashout/v1/cashout"
	"github.com/nexaplatform/nexa-rewards/internal/service/idgen/v1/idgen"
	"github.com/nexaplatform/nexa-rewards/internal/service/rewards/v1/rewards"
	"github.com/nexaplatform/nexa-rewards/internal/service/secretary/v1/secretary"
	storageErrors "github.com/nexaplatform/nexa-rewards/internal/storage/v1/errors"
	"github.com/nexaplatform/nexa-rewards/internal/storage/v1/inmem"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type silentNotifier struct{}

func (silentNotifier) Send(context.Context, string, string, string) error { return nil }

type testEnv struct {
	accounts *Accounts
	rewards  *rewards.Engine
	cashout  *cashout.Cashout
	storage  *inmem.Storage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := inmem.InitStorage()
	cfg := &config.RewardConfig{
		SignupBonus:   750,
		ReferralBonus: 6000,
		CodeTTL:       24 * time.Hour,
	}
	log := logger.InitLog()
	sec, err := secretary.NewSecretaryService(&config.SecretConfig{SecretKey: "test-secret"})
	require.NoError(t, err)
	rew, err := rewards.InitService(st, silentNotifier{}, cfg, log)
	require.NoError(t, err)
	rew.SetClock(func() time.Time { return testTime })
	csh, err := cashout.InitService(st, st, idgen.InitGenerator(), silentNotifier{}, cfg, log)
	require.NoError(t, err)
	csh.SetClock(func() time.Time { return testTime })
	acc, err := InitService(st, st, sec, rew, cfg, log)
	require.NoError(t, err)
	acc.SetClock(func() time.Time { return testTime })
	return &testEnv{accounts: acc, rewards: rew, cashout: csh, storage: st}
}

func (e *testEnv) issueCode(t *testing.T, code string) string {
	t.Helper()
	entry := modelstorage.AccessCodeStorageEntry{Code: code, CreatedAt: testTime, ExpiresAt: testTime.Add(24 * time.Hour)}
	require.NoError(t, e.storage.AddNewCode(context.Background(), entry))
	return code
}

func (e *testEnv) signup(t *testing.T, username, code, ref string) {
	t.Helper()
	_, err := e.accounts.SignUp(context.Background(), modeldto.SignupRequest{
		Fullname: username,
		Email:    username + "@example.com",
		Username: username,
		Password: "hunter22",
		Code:     code,
		Ref:      ref,
	})
	require.NoError(t, err)
}

func TestSignUpSeedsBonusAndConsumesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	code := env.issueCode(t, "WELCOME")

	token, err := env.accounts.SignUp(ctx, modeldto.SignupRequest{
		Fullname: "Alice Smith",
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hunter22",
		Code:     code,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	wallet, err := env.accounts.GetWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 750.0, wallet.TotalBalance)

	transactions, err := env.accounts.GetTransactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "signup_bonus", transactions[0].Kind)
	assert.Equal(t, 750.0, transactions[0].Amount)

	// the code is gone for the next user
	_, err = env.accounts.SignUp(ctx, modeldto.SignupRequest{
		Fullname: "Bob Jones",
		Email:    "bob@example.com",
		Username: "bob",
		Password: "hunter22",
		Code:     code,
	})
	var codeAlreadyUsedError *storageErrors.CodeAlreadyUsedError
	require.True(t, errors.As(err, &codeAlreadyUsedError))
}

func TestSignUpValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.accounts.SignUp(ctx, modeldto.SignupRequest{Username: "alice"})
	var validationError *serviceErrors.ValidationError
	require.True(t, errors.As(err, &validationError))

	_, err = env.accounts.SignUp(ctx, modeldto.SignupRequest{
		Fullname: "Alice Smith",
		Email:    "not-an-email",
		Username: "alice",
		Password: "hunter22",
		Code:     "X",
	})
	require.True(t, errors.As(err, &validationError))
	assert.Equal(t, "email", validationError.Field)
}

func TestSignUpDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice", env.issueCode(t, "CODE1"), "")

	_, err := env.accounts.SignUp(context.Background(), modeldto.SignupRequest{
		Fullname: "Alice Again",
		Email:    "other@example.com",
		Username: "alice",
		Password: "hunter22",
		Code:     env.issueCode(t, "CODE2"),
	})
	var alreadyExistsError *storageErrors.AlreadyExistsError
	require.True(t, errors.As(err, &alreadyExistsError))
}

func TestSignUpWithReferral(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", env.issueCode(t, "CODE1"), "")
	env.signup(t, "bob", env.issueCode(t, "CODE2"), "alice")

	aliceWallet, err := env.accounts.GetWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 6750.0, aliceWallet.TotalBalance)
	assert.Equal(t, 6000.0, aliceWallet.AffiliateBalance)

	bobWallet, err := env.accounts.GetWallet(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 750.0, bobWallet.TotalBalance)

	transactions, err := env.accounts.GetTransactions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "referral_bonus", transactions[0].Kind)
	assert.Contains(t, transactions[0].Note, "bob")
}

func TestSignUpUnknownReferrerDoesNotFail(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "bob", env.issueCode(t, "CODE1"), "ghost")

	wallet, err := env.accounts.GetWallet(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, 750.0, wallet.TotalBalance)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", env.issueCode(t, "CODE1"), "")

	token, err := env.accounts.LoginUser(ctx, modeldto.LoginRequest{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = env.accounts.LoginUser(ctx, modeldto.LoginRequest{Username: "alice", Password: "wrong"})
	var wrongCredentialsError *serviceErrors.WrongCredentialsError
	require.True(t, errors.As(err, &wrongCredentialsError))

	_, err = env.accounts.LoginUser(ctx, modeldto.LoginRequest{Username: "ghost", Password: "hunter22"})
	var notFoundError *storageErrors.NotFoundError
	require.True(t, errors.As(err, &notFoundError))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", env.issueCode(t, "CODE1"), "")

	profile, err := env.accounts.UpdateProfile(ctx, "alice", modeldto.ProfileUpdate{
		Country: "DE",
		Phone:   "+4912345",
	})
	require.NoError(t, err)
	assert.Equal(t, "DE", profile.Country)
	assert.Equal(t, "+4912345", profile.Phone)
	// untouched fields survive
	assert.Equal(t, "alice@example.com", profile.Email)

	_, err = env.accounts.UpdateProfile(ctx, "alice", modeldto.ProfileUpdate{Password: "newpass33"})
	require.NoError(t, err)
	_, err = env.accounts.LoginUser(ctx, modeldto.LoginRequest{Username: "alice", Password: "newpass33"})
	require.NoError(t, err)
}

// TestFullLedgerLifecycle walks one user from signup through a watch reward
// to a fully drained approved withdrawal and checks that the balance always
// equals the sum of ledger amounts.
func TestFullLedgerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", env.issueCode(t, "CODE1"), "")
	require.NoError(t, env.storage.AddVideo(ctx, modelstorage.VideoStorageEntry{ID: "v1", Title: "Intro", Reward: 200, CreatedAt: testTime}))

	result, err := env.rewards.ClaimWatchReward(ctx, "alice", "v1")
	require.NoError(t, err)
	assert.Equal(t, 950.0, result.Balance)

	withdrawal, err := env.cashout.RequestWithdrawal(ctx, "alice", modeldto.NewWithdrawal{
		Amount:        950,
		BankName:      "First Bank",
		AccountNumber: "79927398713",
	})
	require.NoError(t, err)

	wallet, err := env.accounts.GetWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0.0, wallet.TotalBalance)

	_, err = env.cashout.ReviewWithdrawal(ctx, withdrawal.ID, cashout.StatusApproved)
	require.NoError(t, err)

	wallet, err = env.accounts.GetWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0.0, wallet.TotalBalance)

	transactions, err := env.accounts.GetTransactions(ctx, "alice")
	require.NoError(t, err)
	var sum float64
	for _, transaction := range transactions {
		sum += transaction.Amount
	}
	assert.Equal(t, wallet.TotalBalance, sum)
}

func TestGetWalletLogsDerivedFromLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", env.issueCode(t, "CODE1"), "")

	withdrawal, err := env.cashout.RequestWithdrawal(ctx, "alice", modeldto.NewWithdrawal{
		Amount:        250,
		BankName:      "First Bank",
		AccountNumber: "79927398713",
	})
	require.NoError(t, err)
	_, err = env.cashout.ReviewWithdrawal(ctx, withdrawal.ID, cashout.StatusApproved)
	require.NoError(t, err)

	logs, err := env.accounts.GetWalletLogs(ctx, "alice")
	require.NoError(t, err)
	// the zero-amount approval audit row is not a wallet movement
	require.Len(t, logs, 2)
	assert.Equal(t, "debit", logs[0].Direction)
	assert.Equal(t, 250.0, logs[0].Amount)
	assert.Equal(t, "credit", logs[1].Direction)
	assert.Equal(t, 750.0, logs[1].Amount)
}
