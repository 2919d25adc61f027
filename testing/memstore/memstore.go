// Package memstore provides in-memory stand-ins for the repositories and
// the ledger clock, for tests that exercise the commit path without
// external storage.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/ledgerplay/tictactoe-wager/internal/entity"
	"github.com/ledgerplay/tictactoe-wager/internal/repository"
)

type GameStore struct {
	mu    sync.Mutex
	games map[string]entity.GameRecord
}

func NewGameStore() *GameStore {
	return &GameStore{games: make(map[string]entity.GameRecord)}
}

func (that *GameStore) CreateOrUpdate(_ context.Context, game *entity.GameRecord) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = *game

	return nil
}

func (that *GameStore) GetByID(_ context.Context, id string) (*entity.GameRecord, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return &entity.GameRecord{}, repository.ErrGameNotFound
	}

	return &game, nil
}

func (that *GameStore) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.games, id)

	return nil
}

type AccountStore struct {
	mu       sync.Mutex
	balances map[entity.Address]uint64
}

func NewAccountStore() *AccountStore {
	return &AccountStore{balances: make(map[entity.Address]uint64)}
}

func (that *AccountStore) GetBalance(_ context.Context, addr entity.Address) (uint64, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.balances[addr], nil
}

func (that *AccountStore) SetBalance(_ context.Context, addr entity.Address, balance uint64) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.balances[addr] = balance

	return nil
}

type ArchiveStore struct {
	mu     sync.Mutex
	groups [][]entity.SignedTransaction
}

func NewArchiveStore() *ArchiveStore {
	return &ArchiveStore{}
}

func (that *ArchiveStore) SaveGroup(_ context.Context, _ int64, txns []entity.SignedTransaction) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	copied := make([]entity.SignedTransaction, len(txns))
	copy(copied, txns)
	that.groups = append(that.groups, copied)

	return nil
}

func (that *ArchiveStore) GroupIDsByApp(_ context.Context, appID string) ([]string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var ids []string
	for _, group := range that.groups {
		if len(group) > 0 && group[0].Txn.AppID == appID {
			ids = append(ids, group[0].Txn.GroupID)
		}
	}

	return ids, nil
}

// Groups returns everything archived so far.
func (that *ArchiveStore) Groups() [][]entity.SignedTransaction {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.groups
}

// Clock is a manual clock; Advance moves it forward.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (that *Clock) Now() time.Time {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.now
}

func (that *Clock) Advance(d time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.now = that.now.Add(d)
}
