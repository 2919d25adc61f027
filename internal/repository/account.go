package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerplay/tictactoe-wager/internal/entity"
)

// AccountRepository tracks ledger balances. A missing account reads as a
// zero balance.
type AccountRepository interface {
	GetBalance(ctx context.Context, addr entity.Address) (uint64, error)
	SetBalance(ctx context.Context, addr entity.Address, balance uint64) error
}

type dbAccount struct {
	client *redis.Client
}

func NewAccountRepository(client *redis.Client) AccountRepository {
	return &dbAccount{
		client: client,
	}
}

func (that *dbAccount) GetBalance(ctx context.Context, addr entity.Address) (uint64, error) {
	balance, err := that.client.Get(ctx, "account:"+string(addr)).Uint64()

	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

func (that *dbAccount) SetBalance(ctx context.Context, addr entity.Address, balance uint64) error {
	err := that.client.Set(ctx, "account:"+string(addr), balance, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}

	return nil
}
