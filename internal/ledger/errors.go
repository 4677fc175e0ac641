// internal/ledger/errors.go
//
// 本檔集中定義帳本的錯誤類別。
// 業務錯誤（輸入不合法、餘額不足等）由呼叫端直接呈現給使用者；
// 內部錯誤（ErrInternal 包裝的儲存層完整性錯誤）代表程式缺陷，需與業務錯誤分開處理。

package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateUsername 代表使用者名稱已被註冊。
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidUsername 代表使用者名稱為空白。
	ErrInvalidUsername = errors.New("username is required")

	// ErrPasswordMismatch 代表註冊時兩次輸入的密碼不一致。
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrWeakCredential 代表密碼長度不足。
	ErrWeakCredential = errors.New("password too short")

	// ErrInvalidCredentials 代表登入失敗；不透露是帳號或密碼錯誤。
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidAmount 代表轉帳金額非數字、為零或為負。
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance 代表轉帳金額超過付款方餘額。
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrRecipientNotFound 代表找不到收款人。
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrSelfTransfer 代表收款人即為付款人。
	ErrSelfTransfer = errors.New("cannot transfer to self")

	// ErrAccountNotFound 為儲存層錯誤：帳戶 ID 不存在。
	ErrAccountNotFound = errors.New("account not found")

	// ErrNegativeBalance 為儲存層錯誤：調整後餘額將為負。
	ErrNegativeBalance = errors.New("balance would become negative")

	// ErrInternal 包裝所有不應在正確使用下發生的完整性錯誤。
	ErrInternal = errors.New("internal ledger error")
)

// WeakCredentialError 帶出最短密碼長度；errors.Is(err, ErrWeakCredential) 為真。
type WeakCredentialError struct {
	Min int
}

func (e *WeakCredentialError) Error() string {
	return fmt.Sprintf("%v: minimum %d characters", ErrWeakCredential, e.Min)
}

func (e *WeakCredentialError) Unwrap() error { return ErrWeakCredential }

// IsInternal 回報 err 是否為內部完整性錯誤（而非使用者輸入問題）。
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

// messages 為每種業務錯誤對應的單一使用者訊息。
var messages = []struct {
	err error
	msg string
}{
	{ErrDuplicateUsername, "Username already exists"},
	{ErrInvalidUsername, "Username is required"},
	{ErrPasswordMismatch, "Passwords do not match"},
	{ErrWeakCredential, "Password is too short"},
	{ErrInvalidCredentials, "Invalid username or password"},
	{ErrInvalidAmount, "Please enter a valid amount"},
	{ErrInsufficientBalance, "Insufficient balance"},
	{ErrRecipientNotFound, "Recipient not found"},
	{ErrSelfTransfer, "Cannot send money to yourself"},
	{ErrAccountNotFound, "Account not found"},
}

// Message 回傳可直接顯示給使用者的訊息。
// 內部錯誤一律回傳通用訊息，不洩漏細節。
func Message(err error) string {
	if err == nil {
		return ""
	}
	if IsInternal(err) {
		return "Something went wrong. Please try again."
	}
	var weak *WeakCredentialError
	if errors.As(err, &weak) {
		return fmt.Sprintf("Password must be at least %d characters", weak.Min)
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Something went wrong. Please try again."
}

// SignupSucceeded 為註冊成功訊息。
const SignupSucceeded = "Account created successfully! Please login."

// TransferSucceeded 回傳轉帳成功訊息。
func TransferSucceeded(t Transaction) string {
	return fmt.Sprintf("Successfully sent $%s to %s", t.Amount, t.ToUsername)
}
