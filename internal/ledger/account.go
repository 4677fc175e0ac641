// internal/ledger/account.go
//
// 本檔定義 Account、Transaction 與各操作的請求結構，不含任何 HTTP 或終端機細節。

// Package ledger 定義帳本核心的領域模型與業務規則。
package ledger

import (
	"time"

	"goonpay/internal/money"
)

// Account represents a user account.
type Account struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	Balance   money.Amount `json:"balance"`
	CreatedAt time.Time    `json:"createdAt"`

	// secret 僅在本套件內可見，不會被序列化或提供給呈現層。
	secret string
}

// Transaction represents an immutable transfer record.
type Transaction struct {
	ID            string       `json:"id"`
	Seq           uint64       `json:"seq"`
	FromAccountID string       `json:"fromAccountId"`
	ToAccountID   string       `json:"toAccountId"`
	FromUsername  string       `json:"fromUsername"`
	ToUsername    string       `json:"toUsername"`
	Amount        money.Amount `json:"amount"`
	Note          string       `json:"note,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
}

// Involves 回報該筆交易是否以 accountID 為付款方或收款方。
func (t Transaction) Involves(accountID string) bool {
	return t.FromAccountID == accountID || t.ToAccountID == accountID
}

// SignupRequest 為註冊表單。
type SignupRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// TransferRequest 為轉帳請求；Amount 為使用者輸入的原始文字。
type TransferRequest struct {
	FromAccountID     string
	RecipientUsername string
	Amount            string
	Note              string
}

// Summary 為個人頁所需的統計，完全由帳戶與交易紀錄即時推導。
type Summary struct {
	Account  Account      `json:"account"`
	Sent     money.Amount `json:"sent"`
	Received money.Amount `json:"received"`
	Count    int          `json:"count"`
}
