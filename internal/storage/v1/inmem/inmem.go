// Package inmem implements the Storage interface in process memory. It backs
// the service tests and local development runs, one mutex serializes all
// operations so the conditional-update semantics match the PSQL backend.
package inmem

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nexaplatform/nexa-rewards/internal/models/modelstorage"
	storageErrors "github.com/nexaplatform/nexa-rewards/internal/storage/v1/errors"
)

type Storage struct {
	mu              sync.Mutex
	users           map[string]*modelstorage.UserStorageEntry
	codes           map[string]*modelstorage.AccessCodeStorageEntry
	ledger          []modelstorage.LedgerStorageEntry
	withdrawals     map[string]*modelstorage.WithdrawalStorageEntry
	withdrawalOrder []string
	videos          map[string]*modelstorage.VideoStorageEntry
	tasks           map[string]*modelstorage.TaskStorageEntry
	watchLogs       map[string]*modelstorage.WatchLogStorageEntry
	taskLogs        map[string]*modelstorage.TaskLogStorageEntry
	nextID          uint
}

func InitStorage() *Storage {
	return &Storage{
		users:       make(map[string]*modelstorage.UserStorageEntry),
		codes:       make(map[string]*modelstorage.AccessCodeStorageEntry),
		withdrawals: make(map[string]*modelstorage.WithdrawalStorageEntry),
		videos:      make(map[string]*modelstorage.VideoStorageEntry),
		tasks:       make(map[string]*modelstorage.TaskStorageEntry),
		watchLogs:   make(map[string]*modelstorage.WatchLogStorageEntry),
		taskLogs:    make(map[string]*modelstorage.TaskLogStorageEntry),
	}
}

func pairKey(username, sourceID string) string {
	return username + "|" + sourceID
}

func (s *Storage) sequence() uint {
	s.nextID++
	return s.nextID
}

func (s *Storage) appendLedger(username, kind, note, reason string, amount, balanceAfter float64, at time.Time) {
	direction := "credit"
	if amount < 0 {
		direction = "debit"
	}
	s.ledger = append(s.ledger, modelstorage.LedgerStorageEntry{
		ID:           s.sequence(),
		Username:     username,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Direction:    direction,
		Note:         note,
		Reason:       reason,
		CreatedAt:    at,
	})
}

// consumeCodeGuard mirrors the conditional used flip of the PSQL backend.
func (s *Storage) consumeCodeGuard(code string, now time.Time) error {
	entry, ok := s.codes[code]
	if !ok {
		return &storageErrors.NotFoundError{ID: code}
	}
	// an expired code reports expired even when it was also used
	if !entry.ExpiresAt.After(now) {
		return &storageErrors.CodeExpiredError{Code: code}
	}
	if entry.Used {
		return &storageErrors.CodeAlreadyUsedError{Code: code}
	}
	entry.Used = true
	return nil
}

func (s *Storage) AddNewUser(_ context.Context, user modelstorage.UserStorageEntry, code string, signupBonus float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Username]; ok {
		return &storageErrors.AlreadyExistsError{ID: user.Username}
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return &storageErrors.AlreadyExistsError{ID: user.Email}
		}
	}
	// duplicate checks come first so a failed signup does not burn the code,
	// mirroring the transaction rollback of the PSQL backend
	if err := s.consumeCodeGuard(code, user.CreatedAt); err != nil {
		return err
	}
	user.ID = s.sequence()
	user.TotalBalance = signupBonus
	s.users[user.Username] = &user
	if signupBonus != 0 {
		s.appendLedger(user.Username, "signup_bonus", "Signup bonus", "signup", signupBonus, signupBonus, user.CreatedAt)
	}
	return nil
}

func (s *Storage) GetUser(_ context.Context, username string) (*modelstorage.UserStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.users[username]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: username}
	}
	clone := *entry
	return &clone, nil
}

func (s *Storage) UpdateUser(_ context.Context, username string, fullname, email, country, phone, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.users[username]
	if !ok {
		return &storageErrors.NotFoundError{ID: username}
	}
	if fullname != "" {
		entry.Fullname = fullname
	}
	if email != "" {
		entry.Email = email
	}
	if country != "" {
		entry.Country = country
	}
	if phone != "" {
		entry.Phone = phone
	}
	if password != "" {
		entry.Password = password
	}
	return nil
}

func (s *Storage) AddNewCode(_ context.Context, entry modelstorage.AccessCodeStorageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[entry.Code]; ok {
		return &storageErrors.AlreadyExistsError{ID: entry.Code}
	}
	entry.ID = s.sequence()
	s.codes[entry.Code] = &entry
	return nil
}

func (s *Storage) GetCode(_ context.Context, code string) (*modelstorage.AccessCodeStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.codes[code]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: code}
	}
	clone := *entry
	return &clone, nil
}

func (s *Storage) ConsumeCode(_ context.Context, code string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumeCodeGuard(code, now)
}

func (s *Storage) ListCodes(_ context.Context) ([]modelstorage.AccessCodeStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []modelstorage.AccessCodeStorageEntry
	for _, entry := range s.codes {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return entries, nil
}

func (s *Storage) SweepCodes(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var swept int64
	for code, entry := range s.codes {
		if entry.Used || entry.ExpiresAt.Before(now) {
			delete(s.codes, code)
			swept++
		}
	}
	return swept, nil
}

func (s *Storage) RecordEntry(_ context.Context, username, kind, note, reason string, delta float64, at time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return 0, &storageErrors.NotFoundError{ID: username}
	}
	user.TotalBalance += delta
	s.appendLedger(username, kind, note, reason, delta, user.TotalBalance, at)
	return user.TotalBalance, nil
}

func (s *Storage) GetLedgerEntries(_ context.Context, username string) ([]modelstorage.LedgerStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []modelstorage.LedgerStorageEntry
	for _, entry := range s.ledger {
		if entry.Username == username {
			entries = append(entries, entry)
		}
	}
	// newest first, matching the PSQL ordering
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return entries, nil
}

func (s *Storage) CreditReferral(_ context.Context, referrer, newUser string, bonus float64, at time.Time) (*modelstorage.UserStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var user *modelstorage.UserStorageEntry
	for _, entry := range s.users {
		if strings.EqualFold(entry.Username, referrer) {
			user = entry
			break
		}
	}
	if user == nil {
		return nil, &storageErrors.NotFoundError{ID: referrer}
	}
	user.TotalBalance += bonus
	user.AffiliateBalance += bonus
	s.appendLedger(user.Username, "referral_bonus",
		fmt.Sprintf("Referral bonus from %s", newUser), "referral:"+newUser, bonus, user.TotalBalance, at)
	clone := *user
	return &clone, nil
}

func (s *Storage) ClaimWatchReward(_ context.Context, username, videoID string, at time.Time) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[videoID]
	if !ok {
		return 0, 0, &storageErrors.NotFoundError{ID: videoID}
	}
	key := pairKey(username, videoID)
	if log, ok := s.watchLogs[key]; ok && log.Rewarded {
		return 0, 0, &storageErrors.AlreadyRewardedError{Username: username, SourceID: videoID}
	}
	user, ok := s.users[username]
	if !ok {
		return 0, 0, &storageErrors.NotFoundError{ID: username}
	}
	s.watchLogs[key] = &modelstorage.WatchLogStorageEntry{
		ID: s.sequence(), Username: username, VideoID: videoID, Rewarded: true, CreatedAt: at,
	}
	user.TotalBalance += video.Reward
	s.appendLedger(username, "watch_reward", "Watched video: "+video.Title, "watch:"+videoID, video.Reward, user.TotalBalance, at)
	return video.Reward, user.TotalBalance, nil
}

func (s *Storage) CompleteTask(_ context.Context, username, taskID string, at time.Time) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return 0, 0, &storageErrors.NotFoundError{ID: taskID}
	}
	key := pairKey(username, taskID)
	if log, ok := s.taskLogs[key]; ok && log.Completed {
		return 0, 0, &storageErrors.AlreadyRewardedError{Username: username, SourceID: taskID}
	}
	user, ok := s.users[username]
	if !ok {
		return 0, 0, &storageErrors.NotFoundError{ID: username}
	}
	s.taskLogs[key] = &modelstorage.TaskLogStorageEntry{
		ID: s.sequence(), Username: username, TaskID: taskID, Completed: true, CreatedAt: at,
	}
	user.TotalBalance += task.Reward
	s.appendLedger(username, "task_reward", "Completed task: "+task.Title, "task:"+taskID, task.Reward, user.TotalBalance, at)
	return task.Reward, user.TotalBalance, nil
}

func (s *Storage) AddNewWithdrawal(_ context.Context, entry modelstorage.WithdrawalStorageEntry) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[entry.Username]
	if !ok {
		return 0, &storageErrors.NotFoundError{ID: entry.Username}
	}
	if user.TotalBalance < entry.Amount {
		return 0, &storageErrors.NotEnoughFundsError{Username: entry.Username, Amount: entry.Amount}
	}
	user.TotalBalance -= entry.Amount
	entry.Status = "pending"
	clone := entry
	s.withdrawals[entry.ID] = &clone
	s.withdrawalOrder = append(s.withdrawalOrder, entry.ID)
	s.appendLedger(entry.Username, "withdraw_request", "User withdrawal requested", "withdraw:"+entry.ID,
		-entry.Amount, user.TotalBalance, entry.RequestedAt)
	return user.TotalBalance, nil
}

func (s *Storage) UpdateWithdrawalStatus(_ context.Context, id, status string, refund bool, at time.Time) (*modelstorage.WithdrawalStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.withdrawals[id]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: id}
	}
	if entry.Status != "pending" {
		return nil, &storageErrors.TerminalStatusError{ID: id, Status: entry.Status}
	}
	entry.Status = status
	user := s.users[entry.Username]
	balance := 0.0
	if user != nil {
		balance = user.TotalBalance
	}
	s.appendLedger(entry.Username, "withdraw_"+status, fmt.Sprintf("Withdrawal %s", status), "withdraw:"+id, 0, balance, at)
	if refund && status == "rejected" && user != nil {
		user.TotalBalance += entry.Amount
		s.appendLedger(entry.Username, "withdraw_refund", "Withdrawal rejected, amount returned", "withdraw:"+id,
			entry.Amount, user.TotalBalance, at)
	}
	clone := *entry
	return &clone, nil
}

func (s *Storage) GetWithdrawal(_ context.Context, id string) (*modelstorage.WithdrawalStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.withdrawals[id]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: id}
	}
	clone := *entry
	return &clone, nil
}

func (s *Storage) GetWithdrawals(_ context.Context, username string) ([]modelstorage.WithdrawalStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []modelstorage.WithdrawalStorageEntry
	for i := len(s.withdrawalOrder) - 1; i >= 0; i-- {
		entry := s.withdrawals[s.withdrawalOrder[i]]
		if entry != nil && entry.Username == username {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func (s *Storage) GetWithdrawalsByStatus(_ context.Context, status string) ([]modelstorage.WithdrawalStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []modelstorage.WithdrawalStorageEntry
	for i := len(s.withdrawalOrder) - 1; i >= 0; i-- {
		entry := s.withdrawals[s.withdrawalOrder[i]]
		if entry != nil && (status == "" || entry.Status == status) {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func (s *Storage) AddVideo(_ context.Context, entry modelstorage.VideoStorageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[entry.ID]; ok {
		return &storageErrors.AlreadyExistsError{ID: entry.ID}
	}
	s.videos[entry.ID] = &entry
	return nil
}

func (s *Storage) GetVideo(_ context.Context, id string) (*modelstorage.VideoStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.videos[id]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: id}
	}
	clone := *entry
	return &clone, nil
}

func (s *Storage) GetVideos(_ context.Context) ([]modelstorage.VideoStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []modelstorage.VideoStorageEntry
	for _, entry := range s.videos {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (s *Storage) DeleteVideo(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return &storageErrors.NotFoundError{ID: id}
	}
	delete(s.videos, id)
	return nil
}

func (s *Storage) SweepVideos(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var swept int64
	for id, entry := range s.videos {
		if entry.CreatedAt.Before(cutoff) {
			delete(s.videos, id)
			swept++
		}
	}
	return swept, nil
}

func (s *Storage) AddTask(_ context.Context, entry modelstorage.TaskStorageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[entry.ID]; ok {
		return &storageErrors.AlreadyExistsError{ID: entry.ID}
	}
	s.tasks[entry.ID] = &entry
	return nil
}

func (s *Storage) GetTask(_ context.Context, id string) (*modelstorage.TaskStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tasks[id]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: id}
	}
	clone := *entry
	return &clone, nil
}

func (s *Storage) GetTasks(_ context.Context) ([]modelstorage.TaskStorageEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []modelstorage.TaskStorageEntry
	for _, entry := range s.tasks {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (s *Storage) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return &storageErrors.NotFoundError{ID: id}
	}
	delete(s.tasks, id)
	return nil
}

func (s *Storage) SweepTasks(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var swept int64
	for id, entry := range s.tasks {
		if entry.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
			swept++
		}
	}
	return swept, nil
}
