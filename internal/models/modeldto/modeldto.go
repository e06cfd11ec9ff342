// Package modeldto provides types for API request and response bodies.
package modeldto

type (
	SignupRequest struct {
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
		Country  string `json:"country,omitempty"`
		Phone    string `json:"phone,omitempty"`
		Code     string `json:"code"`
		Ref      string `json:"ref,omitempty"`
	}
	LoginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	Wallet struct {
		TotalBalance     float64 `json:"total_balance"`
		AffiliateBalance float64 `json:"affiliate_balance"`
		BonusBalance     float64 `json:"bonus_balance"`
	}
	Profile struct {
		Fullname  string `json:"fullname"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		Country   string `json:"country,omitempty"`
		Phone     string `json:"phone,omitempty"`
		CreatedAt string `json:"created_at"`
	}
	ProfileUpdate struct {
		Fullname string `json:"fullname,omitempty"`
		Email    string `json:"email,omitempty"`
		Country  string `json:"country,omitempty"`
		Phone    string `json:"phone,omitempty"`
		Password string `json:"password,omitempty"`
	}
	AccessCode struct {
		Code      string `json:"code"`
		ExpiresAt string `json:"expires_at"`
		Used      bool   `json:"used"`
	}
	CodeValidation struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason,omitempty"`
	}
	Transaction struct {
		Kind         string  `json:"type"`
		Amount       float64 `json:"amount"`
		BalanceAfter float64 `json:"balance_after"`
		Note         string  `json:"note"`
		CreatedAt    string  `json:"created_at"`
	}
	WalletLogRecord struct {
		Amount      float64 `json:"amount"`
		Direction   string  `json:"type"`
		Description string  `json:"description"`
		Reason      string  `json:"reason,omitempty"`
		CreatedAt   string  `json:"created_at"`
	}
	NewWithdrawal struct {
		Amount        float64 `json:"amount"`
		BankName      string  `json:"bank_name"`
		AccountNumber string  `json:"account_number"`
	}
	Withdrawal struct {
		ID            string  `json:"id"`
		Username      string  `json:"username"`
		Amount        float64 `json:"amount"`
		BankName      string  `json:"bank_name"`
		AccountNumber string  `json:"account_number"`
		Status        string  `json:"status"`
		RequestedAt   string  `json:"requested_at"`
	}
	WithdrawalReview struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	NewVideo struct {
		Title    string  `json:"title"`
		URL      string  `json:"url"`
		Redirect string  `json:"redirect,omitempty"`
		Reward   float64 `json:"reward"`
	}
	// Video is the public shape, the redirect target stays hidden.
	Video struct {
		ID        string  `json:"id"`
		Title     string  `json:"title"`
		URL       string  `json:"url"`
		Reward    float64 `json:"reward"`
		CreatedAt string  `json:"created_at"`
	}
	NewTask struct {
		Title       string  `json:"title"`
		Description string  `json:"description,omitempty"`
		Redirect    string  `json:"redirect,omitempty"`
		Reward      float64 `json:"reward"`
	}
	Task struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Description string  `json:"description,omitempty"`
		Reward      float64 `json:"reward"`
		CreatedAt   string  `json:"created_at"`
	}
	ClaimRequest struct {
		VideoID string `json:"video_id"`
	}
	CompleteRequest struct {
		TaskID string `json:"task_id"`
	}
	RewardResult struct {
		Rewarded        bool    `json:"rewarded"`
		AlreadyRewarded bool    `json:"already_rewarded,omitempty"`
		Reward          float64 `json:"reward"`
		Balance         float64 `json:"balance"`
	}
)
