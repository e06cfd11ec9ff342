package inpsql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexaplatform/nexa-rewards/internal/config"
	"github.com/nexaplatform/nexa-rewards/internal/logger"
	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
	storageErrors "github.com/nexaplatform/nexa-rewards/internal/storage/v1/errors"
)

func setupStorage(t *testing.T) *Storage {
	t.Helper()
	dsn := os.Getenv("DATABASE_URI")
	if dsn == "" {
		t.Skip("DATABASE_URI is not set")
	}
	st, err := InitStorage(context.Background(), &config.StorageConfig{DatabaseDSN: dsn}, logger.InitLog())
	require.NoError(t, err)
	t.Cleanup(func() { st.DB.Close() })
	return st
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

func seedPSQLUser(t *testing.T, st *Storage, balance float64) string {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	username := uniqueName("user")
	code := uniqueName("CODE")
	require.NoError(t, st.AddNewCode(ctx, modelstorage.AccessCodeStorageEntry{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, st.AddNewUser(ctx, modelstorage.UserStorageEntry{
		Username:  username,
		Fullname:  "Test User",
		Email:     username + "@example.com",
		Password:  "hash",
		CreatedAt: now,
	}, code, balance))
	return username
}

func TestSignupSeedsLedger(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()

	username := seedPSQLUser(t, st, 750)

	user, err := st.GetUser(ctx, username)
	require.NoError(t, err)
	assert.Equal(t, 750.0, user.TotalBalance)

	entries, err := st.GetLedgerEntries(ctx, username)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "signup_bonus", entries[0].Kind)
}

func TestCodeIsSingleUse(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	code := uniqueName("CODE")
	require.NoError(t, st.AddNewCode(ctx, modelstorage.AccessCodeStorageEntry{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}))

	require.NoError(t, st.ConsumeCode(ctx, code, now))
	err := st.ConsumeCode(ctx, code, now)
	var codeAlreadyUsedError *storageErrors.CodeAlreadyUsedError
	require.True(t, errors.As(err, &codeAlreadyUsedError))
}

func TestWithdrawalLifecycle(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	username := seedPSQLUser(t, st, 750)
	id := uniqueName("wd")

	balance, err := st.AddNewWithdrawal(ctx, modelstorage.WithdrawalStorageEntry{
		ID:            id,
		Username:      username,
		Amount:        750,
		BankName:      "First Bank",
		AccountNumber: "79927398713",
		Status:        "pending",
		RequestedAt:   now,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)

	_, err = st.AddNewWithdrawal(ctx, modelstorage.WithdrawalStorageEntry{
		ID:          uniqueName("wd"),
		Username:    username,
		Amount:      1,
		Status:      "pending",
		RequestedAt: now,
	})
	var notEnoughFundsError *storageErrors.NotEnoughFundsError
	require.True(t, errors.As(err, &notEnoughFundsError))

	entry, err := st.UpdateWithdrawalStatus(ctx, id, "approved", false, now)
	require.NoError(t, err)
	assert.Equal(t, "approved", entry.Status)

	_, err = st.UpdateWithdrawalStatus(ctx, id, "rejected", false, now)
	var terminalStatusError *storageErrors.TerminalStatusError
	require.True(t, errors.As(err, &terminalStatusError))
}

func TestClaimWatchRewardOncePerUser(t *testing.T) {
	st := setupStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	username := seedPSQLUser(t, st, 750)
	videoID := uniqueName("video")
	require.NoError(t, st.AddVideo(ctx, modelstorage.VideoStorageEntry{
		ID:        videoID,
		Title:     "Intro",
		URL:       "https://cdn.example.com/intro.mp4",
		Reward:    200,
		CreatedAt: now,
	}))

	reward, balance, err := st.ClaimWatchReward(ctx, username, videoID, now)
	require.NoError(t, err)
	assert.Equal(t, 200.0, reward)
	assert.Equal(t, 950.0, balance)

	_, _, err = st.ClaimWatchReward(ctx, username, videoID, now)
	var alreadyRewardedError *storageErrors.AlreadyRewardedError
	require.True(t, errors.As(err, &alreadyRewardedError))
}

// stallDriver blocks inside Begin to simulate a DB round trip that outlives
// the request context. It needs no running database.
type stallDriver struct {
	delay time.Duration
}

func (d *stallDriver) Open(name string) (driver.Conn, error) {
	return &stallConn{delay: d.delay}, nil
}

type stallConn struct {
	delay time.Duration
}

func (c *stallConn) Prepare(query string) (driver.Stmt, error) {
	return nil, driver.ErrSkip
}

func (c *stallConn) Close() error {
	return nil
}

func (c *stallConn) Begin() (driver.Tx, error) {
	time.Sleep(c.delay)
	return stallTx{}, nil
}

type stallTx struct{}

func (stallTx) Commit() error {
	return nil
}

func (stallTx) Rollback() error {
	return nil
}

func init() {
	sql.Register("stall", &stallDriver{delay: 500 * time.Millisecond})
}

func TestTimedOutCallReleasesStorageMutex(t *testing.T) {
	db, err := sql.Open("stall", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := &Storage{DB: db, log: logger.InitLog()}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = st.RecordEntry(ctx, "alice", "signup_bonus", "Signup bonus", "signup", 750, time.Now().UTC())
	var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
	require.True(t, errors.As(err, &contextTimeoutExceededError))

	acquired := make(chan struct{})
	go func() {
		st.mu.Lock()
		st.mu.Unlock()
		close(acquired)
	}()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("storage mutex still held after the timed-out call")
	}
}
