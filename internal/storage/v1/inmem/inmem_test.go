package inmem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
	storageErrors "github.com/nexaplatform/nexa-rewards/internal/storage/v1/errors"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seedCode(t *testing.T, st *Storage, code string) {
	t.Helper()
	require.NoError(t, st.AddNewCode(context.Background(), modelstorage.AccessCodeStorageEntry{
		Code:      code,
		CreatedAt: testTime,
		ExpiresAt: testTime.Add(24 * time.Hour),
	}))
}

func seedUser(t *testing.T, st *Storage, username string, balance float64) {
	t.Helper()
	seedCode(t, st, "CODE"+username)
	require.NoError(t, st.AddNewUser(context.Background(), modelstorage.UserStorageEntry{
		Username:  username,
		Fullname:  username,
		Email:     username + "@example.com",
		Password:  "hash",
		CreatedAt: testTime,
	}, "CODE"+username, balance))
}

func TestFailedSignupDoesNotBurnCode(t *testing.T) {
	st := InitStorage()
	ctx := context.Background()
	seedUser(t, st, "alice", 750)
	seedCode(t, st, "FRESH")

	err := st.AddNewUser(ctx, modelstorage.UserStorageEntry{
		Username:  "alice",
		Email:     "other@example.com",
		CreatedAt: testTime,
	}, "FRESH", 750)
	var alreadyExistsError *storageErrors.AlreadyExistsError
	require.True(t, errors.As(err, &alreadyExistsError))

	code, err := st.GetCode(ctx, "FRESH")
	require.NoError(t, err)
	assert.False(t, code.Used)
}

func TestDuplicateEmailRejected(t *testing.T) {
	st := InitStorage()
	seedUser(t, st, "alice", 750)
	seedCode(t, st, "FRESH")

	err := st.AddNewUser(context.Background(), modelstorage.UserStorageEntry{
		Username:  "alice2",
		Email:     "alice@example.com",
		CreatedAt: testTime,
	}, "FRESH", 750)
	var alreadyExistsError *storageErrors.AlreadyExistsError
	require.True(t, errors.As(err, &alreadyExistsError))
}

func TestSignupBonusIsLedgered(t *testing.T) {
	st := InitStorage()
	ctx := context.Background()
	seedUser(t, st, "alice", 750)

	entries, err := st.GetLedgerEntries(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "signup_bonus", entries[0].Kind)
	assert.Equal(t, 750.0, entries[0].BalanceAfter)
}

func TestConsumeCodeGuards(t *testing.T) {
	st := InitStorage()
	ctx := context.Background()
	seedCode(t, st, "ONCE")

	require.NoError(t, st.ConsumeCode(ctx, "ONCE", testTime))

	err := st.ConsumeCode(ctx, "ONCE", testTime)
	var codeAlreadyUsedError *storageErrors.CodeAlreadyUsedError
	require.True(t, errors.As(err, &codeAlreadyUsedError))

	seedCode(t, st, "LATE")
	err = st.ConsumeCode(ctx, "LATE", testTime.Add(25*time.Hour))
	var codeExpiredError *storageErrors.CodeExpiredError
	require.True(t, errors.As(err, &codeExpiredError))

	err = st.ConsumeCode(ctx, "NOSUCH", testTime)
	var notFoundError *storageErrors.NotFoundError
	require.True(t, errors.As(err, &notFoundError))

	// expired wins over already used
	err = st.ConsumeCode(ctx, "ONCE", testTime.Add(25*time.Hour))
	require.True(t, errors.As(err, &codeExpiredError))
}

func TestWithdrawalDebitGuard(t *testing.T) {
	st := InitStorage()
	ctx := context.Background()
	seedUser(t, st, "alice", 500)

	balance, err := st.AddNewWithdrawal(ctx, modelstorage.WithdrawalStorageEntry{
		ID: "w1", Username: "alice", Amount: 500, RequestedAt: testTime,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)

	_, err = st.AddNewWithdrawal(ctx, modelstorage.WithdrawalStorageEntry{
		ID: "w2", Username: "alice", Amount: 1, RequestedAt: testTime,
	})
	var notEnoughFundsError *storageErrors.NotEnoughFundsError
	require.True(t, errors.As(err, &notEnoughFundsError))
}

func TestUpdateWithdrawalStatusIsTerminal(t *testing.T) {
	st := InitStorage()
	ctx := context.Background()
	seedUser(t, st, "alice", 500)
	_, err := st.AddNewWithdrawal(ctx, modelstorage.WithdrawalStorageEntry{
		ID: "w1", Username: "alice", Amount: 100, RequestedAt: testTime,
	})
	require.NoError(t, err)

	entry, err := st.UpdateWithdrawalStatus(ctx, "w1", "rejected", true, testTime)
	require.NoError(t, err)
	assert.Equal(t, "rejected", entry.Status)

	user, err := st.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 500.0, user.TotalBalance)

	_, err = st.UpdateWithdrawalStatus(ctx, "w1", "approved", false, testTime)
	var terminalStatusError *storageErrors.TerminalStatusError
	require.True(t, errors.As(err, &terminalStatusError))
}

func TestRecordEntryKeepsRunningBalance(t *testing.T) {
	st := InitStorage()
	ctx := context.Background()
	seedUser(t, st, "alice", 750)

	balance, err := st.RecordEntry(ctx, "alice", "task_reward", "Completed task: Survey", "task:t1", 100, testTime)
	require.NoError(t, err)
	assert.Equal(t, 850.0, balance)

	balance, err = st.RecordEntry(ctx, "alice", "withdraw_request", "User withdrawal requested", "withdraw:w1", -300, testTime)
	require.NoError(t, err)
	assert.Equal(t, 550.0, balance)

	entries, err := st.GetLedgerEntries(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 550.0, entries[0].BalanceAfter)
	assert.Equal(t, "debit", entries[0].Direction)
}
