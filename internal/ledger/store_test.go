// internal/ledger/store_test.go

package ledger

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goonpay/internal/money"
)

func TestCreateAccountAndFind(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewAccountStore(WithStoreClock(func() time.Time { return created }))

	a, err := s.CreateAccount("alice", "alice@example.com", "secret1", money.FromUnits(1000))
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "alice", a.Username)
	assert.Equal(t, money.FromUnits(1000), a.Balance)
	assert.Equal(t, created, a.CreatedAt)

	byName, ok := s.FindByUsername("alice")
	require.True(t, ok)
	assert.Equal(t, a.ID, byName.ID)

	byID, ok := s.FindByID(a.ID)
	require.True(t, ok)
	assert.Equal(t, "alice", byID.Username)

	_, ok = s.FindByUsername("Alice")
	assert.False(t, ok, "username lookup is case-sensitive")
	_, ok = s.FindByID("missing")
	assert.False(t, ok)
}

func TestCreateAccountDuplicateLeavesStoreUnchanged(t *testing.T) {
	s := NewAccountStore()
	first, err := s.CreateAccount("bob", "bob@example.com", "pw1234", money.FromUnits(10))
	require.NoError(t, err)

	_, err = s.CreateAccount("bob", "other@example.com", "pw9999", money.FromUnits(99))
	require.ErrorIs(t, err, ErrDuplicateUsername)

	assert.Equal(t, 1, s.Len())
	got, _ := s.FindByUsername("bob")
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "bob@example.com", got.Email)
	assert.Equal(t, money.FromUnits(10), s.TotalBalance())

	// 大小寫不同視為不同名稱。
	_, err = s.CreateAccount("Bob", "", "pw1234", 0)
	assert.NoError(t, err)
}

func TestCreateAccountNegativeStartingBalance(t *testing.T) {
	s := NewAccountStore()
	_, err := s.CreateAccount("neg", "", "pw", money.FromCents(-1))
	assert.ErrorIs(t, err, ErrNegativeBalance)
	assert.Zero(t, s.Len())
}

func TestAdjustBalance(t *testing.T) {
	s := NewAccountStore()
	a, _ := s.CreateAccount("carol", "", "pw", money.FromUnits(100))

	got, err := s.AdjustBalance(a.ID, money.MustParse("-40.50"))
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("59.50"), got.Balance)

	_, err = s.AdjustBalance(a.ID, money.MustParse("-59.51"))
	assert.ErrorIs(t, err, ErrNegativeBalance)

	_, err = s.AdjustBalance("missing", 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	cur, _ := s.FindByID(a.ID)
	assert.Equal(t, money.MustParse("59.50"), cur.Balance)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := NewAccountStore()
	a, _ := s.CreateAccount("a", "", "pw", money.FromUnits(100))
	b, _ := s.CreateAccount("b", "", "pw", money.FromUnits(100))

	boom := errors.New("boom")
	err := s.Update(func(tx *StoreTx) error {
		if _, err := tx.AdjustBalance(a.ID, money.FromUnits(-30)); err != nil {
			return err
		}
		if _, err := tx.AdjustBalance(b.ID, money.FromUnits(30)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ga, _ := s.FindByID(a.ID)
	gb, _ := s.FindByID(b.ID)
	assert.Equal(t, money.FromUnits(100), ga.Balance)
	assert.Equal(t, money.FromUnits(100), gb.Balance)
}

func TestUpdateRollsBackOnPanic(t *testing.T) {
	s := NewAccountStore()
	a, _ := s.CreateAccount("a", "", "pw", money.FromUnits(100))

	assert.Panics(t, func() {
		_ = s.Update(func(tx *StoreTx) error {
			_, _ = tx.AdjustBalance(a.ID, money.FromUnits(-50))
			panic("unexpected")
		})
	})

	ga, _ := s.FindByID(a.ID)
	assert.Equal(t, money.FromUnits(100), ga.Balance)

	// 鎖必須已釋放。
	_, err := s.AdjustBalance(a.ID, 1)
	assert.NoError(t, err)
}

func TestTxUnusableAfterUpdate(t *testing.T) {
	s := NewAccountStore()
	a, _ := s.CreateAccount("a", "", "pw", money.FromUnits(1))

	var leaked *StoreTx
	require.NoError(t, s.Update(func(tx *StoreTx) error {
		leaked = tx
		return nil
	}))
	_, err := leaked.AdjustBalance(a.ID, 1)
	assert.Error(t, err)
}

func TestViewIsReadOnly(t *testing.T) {
	s := NewAccountStore()
	a, _ := s.CreateAccount("a", "", "pw", money.FromUnits(1))

	err := s.View(func(tx *StoreTx) error {
		_, ok := tx.FindByID(a.ID)
		assert.True(t, ok)
		_, err := tx.AdjustBalance(a.ID, 1)
		return err
	})
	assert.Error(t, err)
}

func TestListKeepsCreationOrder(t *testing.T) {
	s := NewAccountStore()
	for _, name := range []string{"x", "y", "z"} {
		_, err := s.CreateAccount(name, "", "pw", 0)
		require.NoError(t, err)
	}
	var names []string
	for _, a := range s.List() {
		names = append(names, a.Username)
	}
	assert.Equal(t, []string{"x", "y", "z"}, names)
}

// 同名帳戶並行建立時只有一個成功。
func TestConcurrentCreateSameUsername(t *testing.T) {
	s := NewAccountStore()

	const workers = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dups int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.CreateAccount("bob", "", "pw1234", money.FromUnits(1000))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrDuplicateUsername):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dups)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, money.FromUnits(1000), s.TotalBalance())
}
