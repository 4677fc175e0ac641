// internal/ledger/ledger.go

// Engine 為帳本的操作入口：註冊、登入比對、轉帳與交易紀錄查詢。
// 轉帳的所有檢查與雙邊餘額調整都在 AccountStore.Update 的同一個臨界區內完成，
// 交易紀錄也在該臨界區內追加，任一檢查失敗時帳戶與紀錄皆不變。
// 交易紀錄只增不改，Seq 即建立順序。

package ledger

import (
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"goonpay/internal/money"
)

// Policy 為帳本的可調整常數。
type Policy struct {
	// DemoSeedBalance 為示範帳戶的初始餘額。
	DemoSeedBalance money.Amount
	// NewAccountBalance 為每個新註冊帳戶發放的初始餘額。
	NewAccountBalance money.Amount
	// MinCredentialLength 為註冊密碼的最短長度（字元數）。
	MinCredentialLength int
}

// 預設常數。
const (
	DefaultDemoSeedBalance     = money.Amount(150000)
	DefaultNewAccountBalance   = money.Amount(100000)
	DefaultMinCredentialLength = 6
)

// DefaultPolicy 為預設的帳本常數。
var DefaultPolicy = Policy{
	DemoSeedBalance:     DefaultDemoSeedBalance,
	NewAccountBalance:   DefaultNewAccountBalance,
	MinCredentialLength: DefaultMinCredentialLength,
}

// Engine owns the transaction log and executes transfers against an AccountStore.
type Engine struct {
	store  *AccountStore
	policy Policy
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	logMu sync.RWMutex
	txs   []Transaction
}

// Option 調整 Engine 的設定。
type Option func(*Engine)

// WithPolicy 指定帳本常數。
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithLogger 指定結構化日誌輸出。
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock 指定交易時間戳所用的時鐘。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine 建立綁定 store 的帳本；store 為 nil 時自行建立空白帳戶庫。
func NewEngine(store *AccountStore, opts ...Option) *Engine {
	if store == nil {
		store = NewAccountStore()
	}
	e := &Engine{
		store:  store,
		policy: DefaultPolicy,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store 回傳底層帳戶庫。
func (e *Engine) Store() *AccountStore { return e.store }

// Policy 回傳目前使用的帳本常數。
func (e *Engine) Policy() Policy { return e.policy }

// SeedDemo 以 DemoSeedBalance 建立示範帳戶，不套用密碼長度規則。
func (e *Engine) SeedDemo(username, email, password string) (Account, error) {
	a, err := e.store.CreateAccount(username, email, password, e.policy.DemoSeedBalance)
	if err != nil {
		return Account{}, err
	}
	e.logger.Info("demo account seeded", "account_id", a.ID, "username", a.Username, "balance", a.Balance.String())
	return a, nil
}

// SignUp 註冊新帳戶。檢查順序：使用者名稱非空、兩次密碼一致、密碼長度、名稱唯一。
// 初始餘額固定為 Policy.NewAccountBalance。
func (e *Engine) SignUp(req SignupRequest) (Account, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return Account{}, ErrInvalidUsername
	}
	if req.Password != req.ConfirmPassword {
		return Account{}, ErrPasswordMismatch
	}
	if utf8.RuneCountInString(req.Password) < e.policy.MinCredentialLength {
		return Account{}, &WeakCredentialError{Min: e.policy.MinCredentialLength}
	}
	a, err := e.store.CreateAccount(username, strings.TrimSpace(req.Email), req.Password, e.policy.NewAccountBalance)
	if err != nil {
		return Account{}, err
	}
	e.logger.Info("account created", "account_id", a.ID, "username", a.Username, "balance", a.Balance.String())
	return a, nil
}

// Authenticate 以使用者名稱查詢帳戶並逐字比對密碼。
// 帳號不存在或密碼不符皆回傳 false，不是錯誤。
func (e *Engine) Authenticate(username, password string) (Account, bool) {
	a, ok := e.store.FindByUsername(username)
	if !ok {
		return Account{}, false
	}
	if subtle.ConstantTimeCompare([]byte(a.secret), []byte(password)) != 1 {
		return Account{}, false
	}
	return a, true
}

// Login 同 Authenticate，失敗時回傳 ErrInvalidCredentials。
func (e *Engine) Login(username, password string) (Account, error) {
	a, ok := e.Authenticate(username, password)
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	return a, nil
}

// Account 重新讀取帳戶目前狀態（含最新餘額）。
func (e *Engine) Account(id string) (Account, error) {
	a, ok := e.store.FindByID(id)
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

// Transfer 執行轉帳，檢查依序為：
//  1. 金額為大於零的有限數字
//  2. 付款帳戶存在
//  3. 金額不超過付款方餘額
//  4. 收款人名稱可解析
//  5. 收款人不是付款人
//
// 全部通過後才扣款、入帳並追加交易紀錄；任一步失敗即回傳，不留下任何變更。
func (e *Engine) Transfer(req TransferRequest) (Transaction, error) {
	amount, err := money.Parse(req.Amount)
	if err != nil || !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: %q", ErrInvalidAmount, req.Amount)
	}
	recipient := strings.TrimSpace(req.RecipientUsername)

	var out Transaction
	err = e.store.Update(func(tx *StoreTx) error {
		from, ok := tx.FindByID(req.FromAccountID)
		if !ok {
			return e.internal("transfer source", fmt.Errorf("%w: %s", ErrAccountNotFound, req.FromAccountID))
		}
		if amount > from.Balance {
			return ErrInsufficientBalance
		}
		to, ok := tx.FindByUsername(recipient)
		if !ok {
			return ErrRecipientNotFound
		}
		if to.ID == from.ID {
			return ErrSelfTransfer
		}

		if _, err := tx.AdjustBalance(from.ID, amount.Neg()); err != nil {
			return e.internal("debit", err)
		}
		if _, err := tx.AdjustBalance(to.ID, amount); err != nil {
			return e.internal("credit", err)
		}

		out = e.append(Transaction{
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			FromUsername:  from.Username,
			ToUsername:    to.Username,
			Amount:        amount,
			Note:          req.Note,
		})
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	e.logger.Info("transfer completed",
		"transaction_id", out.ID,
		"seq", out.Seq,
		"from", out.FromUsername,
		"to", out.ToUsername,
		"amount", out.Amount.String(),
	)
	return out, nil
}

// append 在 logMu 內配發 ID、Seq 與時間戳並追加紀錄。呼叫端須持有 store 寫鎖。
func (e *Engine) append(t Transaction) Transaction {
	e.logMu.Lock()
	defer e.logMu.Unlock()
	t.ID = e.newID()
	t.Seq = uint64(len(e.txs)) + 1
	t.Timestamp = e.now()
	e.txs = append(e.txs, t)
	return t
}

// internal 將儲存層錯誤包裝為 ErrInternal 並記錄。
func (e *Engine) internal(step string, err error) error {
	e.logger.Error("ledger integrity failure", "step", step, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrInternal, step, err)
}

// TransactionsFor 回傳 accountID 為付款方或收款方的交易，最新的在前。
// 每次呼叫都回傳新的切片。
func (e *Engine) TransactionsFor(accountID string) []Transaction {
	e.logMu.RLock()
	defer e.logMu.RUnlock()
	return e.transactionsFor(accountID)
}

func (e *Engine) transactionsFor(accountID string) []Transaction {
	out := make([]Transaction, 0)
	for i := len(e.txs) - 1; i >= 0; i-- {
		if e.txs[i].Involves(accountID) {
			out = append(out, e.txs[i])
		}
	}
	return out
}

// Summary 回傳帳戶與其收付統計；帳戶與紀錄取自同一個一致的時間點。
func (e *Engine) Summary(accountID string) (Summary, error) {
	var sum Summary
	err := e.store.View(func(tx *StoreTx) error {
		a, ok := tx.FindByID(accountID)
		if !ok {
			return ErrAccountNotFound
		}
		sum.Account = a
		e.logMu.RLock()
		defer e.logMu.RUnlock()
		for _, t := range e.transactionsFor(accountID) {
			sum.Count++
			if t.FromAccountID == accountID {
				sum.Sent += t.Amount
			} else {
				sum.Received += t.Amount
			}
		}
		return nil
	})
	return sum, err
}

// LogLen 回傳交易紀錄筆數。
func (e *Engine) LogLen() int {
	e.logMu.RLock()
	defer e.logMu.RUnlock()
	return len(e.txs)
}

// TotalSupply 回傳所有帳戶餘額總和。
func (e *Engine) TotalSupply() money.Amount {
	return e.store.TotalBalance()
}
