package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"swapledger/internal/models"
	"swapledger/internal/repositories"
)

// memStore is an in-memory LedgerRepository. A transaction holds the store
// mutex for its whole duration, which stands in for the wallet row lock, and
// restores a snapshot when fn fails.
type memStore struct {
	mu          sync.Mutex
	wallets     map[uint]*models.Wallet
	entries     []*models.LedgerEntry
	nextWallet  uint
	nextEntry   uint
	failOnEntry int // fail the n-th CreateEntry call when > 0
	entryCalls  int
	locked      []uint // LockWallet call order, for lock ordering checks

	// afterWalletRead runs once, outside the lock, after the next
	// GetOrCreateWallet has read its row.
	afterWalletRead func()
}

func newMemStore() *memStore {
	return &memStore{wallets: make(map[uint]*models.Wallet)}
}

type memRepo struct {
	s    *memStore
	inTx bool
}

var _ repositories.LedgerRepository = (*memRepo)(nil)

func (r *memRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memRepo) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	wallets, entries, nextWallet, nextEntry := r.s.snapshot()
	if err := fn(&memRepo{s: r.s, inTx: true}); err != nil {
		r.s.wallets, r.s.entries, r.s.nextWallet, r.s.nextEntry = wallets, entries, nextWallet, nextEntry
		return err
	}
	return nil
}

func (s *memStore) snapshot() (map[uint]*models.Wallet, []*models.LedgerEntry, uint, uint) {
	wallets := make(map[uint]*models.Wallet, len(s.wallets))
	for k, w := range s.wallets {
		c := *w
		wallets[k] = &c
	}
	entries := make([]*models.LedgerEntry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = copyEntry(e)
	}
	return wallets, entries, s.nextWallet, s.nextEntry
}

func copyEntry(e *models.LedgerEntry) *models.LedgerEntry {
	c := *e
	if e.ExpiresAt != nil {
		t := *e.ExpiresAt
		c.ExpiresAt = &t
	}
	c.SourceEntryIDs = append([]int64(nil), e.SourceEntryIDs...)
	return &c
}

func (r *memRepo) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	defer r.lock()()
	w, ok := r.s.wallets[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	c := *w
	return &c, nil
}

func (r *memRepo) GetOrCreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	unlock := r.lock()
	w := r.s.getOrCreate(userID)
	hook := r.s.afterWalletRead
	r.s.afterWalletRead = nil
	unlock()

	if hook != nil {
		hook()
	}
	return w, nil
}

func (s *memStore) getOrCreate(userID uint) *models.Wallet {
	w, ok := s.wallets[userID]
	if !ok {
		s.nextWallet++
		w = &models.Wallet{ID: s.nextWallet, UserID: userID}
		s.wallets[userID] = w
	}
	c := *w
	return &c
}

func (r *memRepo) LockWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	r.s.locked = append(r.s.locked, userID)
	return r.s.getOrCreate(userID), nil
}

func (r *memRepo) SaveWallet(ctx context.Context, wallet *models.Wallet) error {
	c := *wallet
	r.s.wallets[wallet.UserID] = &c
	return nil
}

func (r *memRepo) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	r.s.entryCalls++
	if r.s.failOnEntry > 0 && r.s.entryCalls == r.s.failOnEntry {
		return errInjected
	}
	r.s.nextEntry++
	entry.ID = r.s.nextEntry
	entry.CreatedAt = time.Now()
	r.s.entries = append(r.s.entries, copyEntry(entry))
	return nil
}

func (r *memRepo) SaveEntry(ctx context.Context, entry *models.LedgerEntry) error {
	for i, e := range r.s.entries {
		if e.ID == entry.ID {
			r.s.entries[i] = copyEntry(entry)
			return nil
		}
	}
	return repositories.ErrEntryNotFound
}

func (r *memRepo) LockEntry(ctx context.Context, id uint) (*models.LedgerEntry, error) {
	for _, e := range r.s.entries {
		if e.ID == id {
			return copyEntry(e), nil
		}
	}
	return nil, repositories.ErrEntryNotFound
}

func (r *memRepo) LockSpendableEntries(ctx context.Context, userID uint, now time.Time) ([]*models.LedgerEntry, error) {
	var out []*models.LedgerEntry
	for _, e := range r.s.entries {
		if e.UserID == userID && e.IsSpendableAt(now) {
			out = append(out, copyEntry(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ExpiresAt == nil && b.ExpiresAt == nil:
			return a.ID < b.ID
		case a.ExpiresAt == nil:
			return false
		case b.ExpiresAt == nil:
			return true
		case !a.ExpiresAt.Equal(*b.ExpiresAt):
			return a.ExpiresAt.Before(*b.ExpiresAt)
		default:
			return a.ID < b.ID
		}
	})
	return out, nil
}

func (r *memRepo) FindExpiredDeposits(ctx context.Context, now time.Time, afterID uint, limit int) ([]*models.LedgerEntry, error) {
	defer r.lock()()
	var out []*models.LedgerEntry
	for _, e := range r.s.entries {
		if e.Kind == models.EntryDeposit && e.Status == models.EntryActive &&
			e.ExpiresAt != nil && !e.ExpiresAt.After(now) && e.ID > afterID {
			out = append(out, copyEntry(e))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memRepo) ListEntries(ctx context.Context, userID uint, limit, offset int) ([]models.LedgerEntry, int64, error) {
	defer r.lock()()
	var all []models.LedgerEntry
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		if r.s.entries[i].UserID == userID {
			all = append(all, *copyEntry(r.s.entries[i]))
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memRepo) SumActive(ctx context.Context, userID uint) (int64, error) {
	defer r.lock()()
	return r.s.activeSum(userID), nil
}

func (s *memStore) activeSum(userID uint) int64 {
	var sum int64
	for _, e := range s.entries {
		if e.UserID == userID && e.Status == models.EntryActive {
			sum += e.Amount
		}
	}
	return sum
}

func (r *memRepo) SumExpiringBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	defer r.lock()()
	var sum int64
	for _, e := range r.s.entries {
		if e.UserID == userID && e.Kind == models.EntryDeposit && e.Status == models.EntryActive &&
			e.ExpiresAt != nil && e.ExpiresAt.After(from) && !e.ExpiresAt.After(to) {
			sum += e.Amount
		}
	}
	return sum, nil
}

func (r *memRepo) SumByReference(ctx context.Context, userID uint, kind models.EntryKind, reference string) (int64, error) {
	defer r.lock()()
	var sum int64
	for _, e := range r.s.entries {
		if e.UserID == userID && e.Kind == kind && e.Reference == reference {
			sum += e.OriginalAmount
		}
	}
	return sum, nil
}

// test accessors, safe outside transactions

func (s *memStore) wallet(userID uint) models.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.wallets[userID]; ok {
		return *w
	}
	return models.Wallet{UserID: userID}
}

func (s *memStore) entriesFor(userID uint) []models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LedgerEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, *copyEntry(e))
		}
	}
	return out
}

func (s *memStore) sumActive(userID uint) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSum(userID)
}

func (s *memStore) setBalance(userID uint, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(userID)
	s.wallets[userID].TotalBalance = balance
}

func (s *memStore) setTotals(userID uint, fn func(w *models.Wallet)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getOrCreate(userID)
	fn(s.wallets[userID])
}
