// internal/ledger/store.go

// AccountStore 為帳戶的唯一持有者：主索引為 ID，次索引為唯一的使用者名稱。
// 採用單一讀寫鎖 (sync.RWMutex)：所有寫入與跨帳戶的「檢查後動作」都在寫鎖內完成，
// 讀取端永遠看不到只做一半的調整。
// 餘額只能經由 AdjustBalance（或 StoreTx.AdjustBalance）改變。

package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"goonpay/internal/money"
)

var errTxDone = errors.New("store transaction already finished")

// AccountStore holds every account and guards their balances.
// - mu：保護 byID、byName、order 與所有帳戶的餘額。
// - byName：username → id，區分大小寫的精確比對。
// - order：建立順序，供 List 回傳穩定排序。
type AccountStore struct {
	mu     sync.RWMutex
	byID   map[string]*Account
	byName map[string]string
	order  []string

	now   func() time.Time
	newID func() string
}

// StoreOption 調整 AccountStore 的時鐘與 ID 產生器（測試用）。
type StoreOption func(*AccountStore)

// WithStoreClock 指定 createdAt 所用的時鐘。
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *AccountStore) { s.now = now }
}

// WithStoreIDs 指定帳戶 ID 產生器。
func WithStoreIDs(newID func() string) StoreOption {
	return func(s *AccountStore) { s.newID = newID }
}

// NewAccountStore 建立空白的 in-memory 帳戶庫。
func NewAccountStore(opts ...StoreOption) *AccountStore {
	s := &AccountStore{
		byID:   make(map[string]*Account),
		byName: make(map[string]string),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount 以指定初始餘額建立帳戶。
// 使用者名稱已存在時回傳 ErrDuplicateUsername，帳戶庫不變。
// 檢查與寫入在同一個寫鎖內，兩個同名的並行建立只有一個會成功。
func (s *AccountStore) CreateAccount(username, email, credentialSecret string, startingBalance money.Amount) (Account, error) {
	if startingBalance < 0 {
		return Account{}, ErrNegativeBalance
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byName[username]; taken {
		return Account{}, ErrDuplicateUsername
	}
	a := &Account{
		ID:        s.newID(),
		Username:  username,
		Email:     email,
		Balance:   startingBalance,
		CreatedAt: s.now(),
		secret:    credentialSecret,
	}
	if _, clash := s.byID[a.ID]; clash {
		return Account{}, fmt.Errorf("%w: duplicate account id %q", ErrInternal, a.ID)
	}
	s.byID[a.ID] = a
	s.byName[username] = a.ID
	s.order = append(s.order, a.ID)
	return *a, nil
}

// FindByUsername 以使用者名稱精確查詢；回傳值拷貝。
func (s *AccountStore) FindByUsername(username string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByUsername(username)
}

// FindByID 以帳戶 ID 查詢；回傳值拷貝。
func (s *AccountStore) FindByID(id string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByID(id)
}

// AdjustBalance 將餘額加上 delta（可為負）並回傳更新後的帳戶。
// 帳戶不存在回傳 ErrAccountNotFound；結果為負回傳 ErrNegativeBalance。
func (s *AccountStore) AdjustBalance(id string, delta money.Amount) (Account, error) {
	var out Account
	err := s.Update(func(tx *StoreTx) error {
		a, err := tx.AdjustBalance(id, delta)
		out = a
		return err
	})
	return out, err
}

// Update 在寫鎖內執行 fn。fn 經由 tx 所做的餘額調整會被記錄；
// 若 fn 回傳錯誤或 panic，調整依相反順序撤回後才釋放鎖。
func (s *AccountStore) Update(fn func(tx *StoreTx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &StoreTx{s: s}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			tx.done = true
			panic(r)
		}
	}()
	err = fn(tx)
	if err != nil {
		tx.rollback()
	}
	tx.done = true
	return err
}

// View 在讀鎖內執行 fn；tx 為唯讀。
func (s *AccountStore) View(fn func(tx *StoreTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx := &StoreTx{s: s, readOnly: true}
	defer func() { tx.done = true }()
	return fn(tx)
}

// List 依建立順序回傳所有帳戶的值拷貝。
func (s *AccountStore) List() []Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Len 回傳帳戶數量。
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// TotalBalance 回傳所有帳戶餘額總和（貨幣總供給）。
func (s *AccountStore) TotalBalance() money.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total money.Amount
	for _, a := range s.byID {
		total += a.Balance
	}
	return total
}

func (s *AccountStore) findByUsername(username string) (Account, bool) {
	id, ok := s.byName[username]
	if !ok {
		return Account{}, false
	}
	return s.findByID(id)
}

func (s *AccountStore) findByID(id string) (Account, bool) {
	a, ok := s.byID[id]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// StoreTx 為 Update/View 回呼中使用的帳戶庫視圖，只在回呼期間有效。
type StoreTx struct {
	s        *AccountStore
	journal  []adjustment
	readOnly bool
	done     bool
}

type adjustment struct {
	id    string
	delta money.Amount
}

// FindByID 同 AccountStore.FindByID，但不另行加鎖。
func (tx *StoreTx) FindByID(id string) (Account, bool) {
	if tx.done {
		return Account{}, false
	}
	return tx.s.findByID(id)
}

// FindByUsername 同 AccountStore.FindByUsername，但不另行加鎖。
func (tx *StoreTx) FindByUsername(username string) (Account, bool) {
	if tx.done {
		return Account{}, false
	}
	return tx.s.findByUsername(username)
}

// AdjustBalance 調整餘額並記入撤回日誌。
func (tx *StoreTx) AdjustBalance(id string, delta money.Amount) (Account, error) {
	if tx.done {
		return Account{}, errTxDone
	}
	if tx.readOnly {
		return Account{}, errors.New("adjust balance in read-only view")
	}
	a, ok := tx.s.byID[id]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	next, err := a.Balance.Add(delta)
	if err != nil {
		return Account{}, fmt.Errorf("adjust %s by %s: %w", id, delta, err)
	}
	if next < 0 {
		return Account{}, fmt.Errorf("%w: %s has %s, delta %s", ErrNegativeBalance, id, a.Balance, delta)
	}
	a.Balance = next
	tx.journal = append(tx.journal, adjustment{id: id, delta: delta})
	return *a, nil
}

// rollback 依相反順序撤回本次 Update 已套用的調整。
func (tx *StoreTx) rollback() {
	for i := len(tx.journal) - 1; i >= 0; i-- {
		adj := tx.journal[i]
		if a, ok := tx.s.byID[adj.id]; ok {
			a.Balance -= adj.delta
		}
	}
	tx.journal = nil
}
