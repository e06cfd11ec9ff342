// Package modelstorage provides types for querying relational DB.
package modelstorage

import "time"

type UserStorageEntry struct {
	ID               uint      `db:"id"`
	Username         string    `db:"username"`
	Fullname         string    `db:"fullname"`
	Email            string    `db:"email"`
	Password         string    `db:"password"`
	Country          string    `db:"country"`
	Phone            string    `db:"phone"`
	TotalBalance     float64   `db:"total_balance"`
	AffiliateBalance float64   `db:"affiliate_balance"`
	BonusBalance     float64   `db:"bonus_balance"`
	CreatedAt        time.Time `db:"created_at"`
}

type AccessCodeStorageEntry struct {
	ID        uint      `db:"id"`
	Code      string    `db:"code"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
	Used      bool      `db:"used"`
}

type LedgerStorageEntry struct {
	ID           uint      `db:"id"`
	Username     string    `db:"username"`
	Kind         string    `db:"kind"`
	Amount       float64   `db:"amount"`
	BalanceAfter float64   `db:"balance_after"`
	Direction    string    `db:"direction"`
	Note         string    `db:"note"`
	Reason       string    `db:"reason"`
	CreatedAt    time.Time `db:"created_at"`
}

type WithdrawalStorageEntry struct {
	ID            string    `db:"id"`
	Username      string    `db:"username"`
	Amount        float64   `db:"amount"`
	BankName      string    `db:"bank_name"`
	AccountNumber string    `db:"account_number"`
	Status        string    `db:"status"`
	RequestedAt   time.Time `db:"requested_at"`
}

type VideoStorageEntry struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	URL         string    `db:"url"`
	RedirectURL string    `db:"redirect_url"`
	Reward      float64   `db:"reward"`
	CreatedAt   time.Time `db:"created_at"`
}

type TaskStorageEntry struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	RedirectURL string    `db:"redirect_url"`
	Reward      float64   `db:"reward"`
	CreatedAt   time.Time `db:"created_at"`
}

type WatchLogStorageEntry struct {
	ID        uint      `db:"id"`
	Username  string    `db:"username"`
	VideoID   string    `db:"video_id"`
	Rewarded  bool      `db:"rewarded"`
	CreatedAt time.Time `db:"created_at"`
}

type TaskLogStorageEntry struct {
	ID        uint      `db:"id"`
	Username  string    `db:"username"`
	TaskID    string    `db:"task_id"`
	Completed bool      `db:"completed"`
	CreatedAt time.Time `db:"created_at"`
}
