// Package ledger simulates the hosting chain: it owns app records and
// account balances, verifies authorization, and commits a transaction
// group atomically or not at all. The original protocol ran against a
// public network; this ledger hosts the same rules locally so the whole
// lifecycle is executable end to end.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ledgerplay/tictactoe-wager/internal/apperror"
	"github.com/ledgerplay/tictactoe-wager/internal/entity"
	"github.com/ledgerplay/tictactoe-wager/internal/escrow"
	"github.com/ledgerplay/tictactoe-wager/internal/repository"
	"github.com/ledgerplay/tictactoe-wager/internal/validator"
)

// Clock supplies the ledger's wall-clock time. Tests substitute a fixed
// one; deadlines are pure state, never timers.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

type Ledger struct {
	logger *slog.Logger

	games    repository.GameRepository
	accounts repository.AccountRepository
	archive  repository.ArchiveRepository

	validator  *validator.Validator
	feeCeiling uint64
	clock      Clock

	// mu is the ledger's global serialization: one group commits at a
	// time, so concurrent calls against the same record resolve in
	// commit order.
	mu     sync.Mutex
	guards map[entity.Address]*escrow.Guard
}

func New(
	logger *slog.Logger,
	games repository.GameRepository,
	accounts repository.AccountRepository,
	archive repository.ArchiveRepository,
	validatorInstance *validator.Validator,
	feeCeiling uint64,
	clock Clock,
) *Ledger {
	return &Ledger{
		logger:     logger.With("component", "ledger"),
		games:      games,
		accounts:   accounts,
		archive:    archive,
		validator:  validatorInstance,
		feeCeiling: feeCeiling,
		clock:      clock,
		guards:     make(map[entity.Address]*escrow.Guard),
	}
}

// Fund is the genesis faucet: it credits an account out of thin air so
// demos and tests can seed the parties.
func (that *Ledger) Fund(ctx context.Context, addr entity.Address, amount uint64) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	balance, err := that.accounts.GetBalance(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	if err = that.accounts.SetBalance(ctx, addr, balance+amount); err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	return nil
}

// Deploy creates a new game instance from a signed creation call, assigns
// its app ID, runs the initialization transition, and registers the paired
// escrow guard. Returns the app ID and the derived escrow address.
func (that *Ledger) Deploy(ctx context.Context, signed entity.SignedTransaction) (string, entity.Address, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if signed.Txn.Type != entity.TxnAppCall || signed.Txn.AppID != "" {
		return "", entity.ZeroAddress, apperror.ErrBadGroupShape
	}

	if !entity.VerifyTxnSig(signed.Txn, signed.Sig) {
		return "", entity.ZeroAddress, apperror.ErrUnauthorized
	}

	appID, err := newAppID()
	if err != nil {
		return "", entity.ZeroAddress, err
	}

	record := &entity.GameRecord{ID: appID}

	creation := signed.Txn
	creation.AppID = appID

	group := entity.NewGroupView([]entity.Transaction{creation})
	if err = that.validator.Apply(record, group, that.clock.Now()); err != nil {
		return "", entity.ZeroAddress, fmt.Errorf("creation call rejected: %w", err)
	}

	if err = that.games.CreateOrUpdate(ctx, record); err != nil {
		return "", entity.ZeroAddress, fmt.Errorf("failed to persist game record: %w", err)
	}

	escrowAddr := entity.EscrowAddress(appID)
	that.guards[escrowAddr] = escrow.NewGuard(appID, that.feeCeiling)

	that.logger.Info("app deployed", "app_id", appID, "escrow", escrowAddr, "creator", signed.Txn.Sender)

	return appID, escrowAddr, nil
}

// SubmitGroup commits a signed transaction group as one unit. Every
// authorization and every validator precondition must hold; otherwise the
// whole group is discarded with zero effect. Callers must treat any error
// as "nothing happened".
func (that *Ledger) SubmitGroup(ctx context.Context, signed []entity.SignedTransaction) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(signed) == 0 {
		return apperror.ErrBadGroupShape
	}

	txns := make([]entity.Transaction, len(signed))
	for i, s := range signed {
		txns[i] = s.Txn
	}

	if err := that.verifyGroupStamp(txns); err != nil {
		return err
	}

	view := entity.NewGroupView(txns)

	if err := that.verifyAuthorization(signed, view); err != nil {
		return err
	}

	// Stage every mutation, then persist. Staging keeps rejection free
	// of partial effects.
	records, err := that.executeCalls(ctx, view)
	if err != nil {
		return err
	}

	balances, err := that.settlePayments(ctx, view)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err = that.games.CreateOrUpdate(ctx, record); err != nil {
			return fmt.Errorf("failed to persist game record: %w", err)
		}
	}

	for addr, balance := range balances {
		if err = that.accounts.SetBalance(ctx, addr, balance); err != nil {
			return fmt.Errorf("failed to persist balance: %w", err)
		}
	}

	committedAt := that.clock.Now().Unix()
	if err = that.archive.SaveGroup(ctx, committedAt, signed); err != nil {
		return fmt.Errorf("failed to archive group: %w", err)
	}

	that.logger.Info("group committed", "group_id", txns[0].GroupID, "size", len(txns))

	return nil
}

// GetGame is the read path for status, turn, deadline and wager.
func (that *Ledger) GetGame(ctx context.Context, appID string) (*entity.GameRecord, error) {
	record, err := that.games.GetByID(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game record: %w", err)
	}

	return record, nil
}

func (that *Ledger) Balance(ctx context.Context, addr entity.Address) (uint64, error) {
	balance, err := that.accounts.GetBalance(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}

	return balance, nil
}

// verifyGroupStamp recomputes the binding identifier and checks every
// member carries it.
func (that *Ledger) verifyGroupStamp(txns []entity.Transaction) error {
	expected, err := entity.ComputeGroupID(txns)
	if err != nil {
		return err
	}

	for _, txn := range txns {
		if txn.GroupID != expected {
			return apperror.ErrBadGroupShape
		}
	}

	return nil
}

// verifyAuthorization checks each member's authorization: an ed25519
// signature by the sender, or - for logic-authorized transactions - the
// escrow guard registered for the sending address, evaluated against the
// same read-only group view the validator sees.
func (that *Ledger) verifyAuthorization(signed []entity.SignedTransaction, view entity.GroupView) error {
	for _, s := range signed {
		if s.LogicSig {
			guard, ok := that.guards[s.Txn.Sender]
			if !ok {
				return apperror.ErrUnauthorized
			}

			if err := guard.Authorize(view); err != nil {
				return fmt.Errorf("escrow refused release: %w", err)
			}

			continue
		}

		if !entity.VerifyTxnSig(s.Txn, s.Sig) {
			return apperror.ErrUnauthorized
		}
	}

	return nil
}

// executeCalls runs the validator over copies of the touched records and
// returns the staged results.
func (that *Ledger) executeCalls(ctx context.Context, view entity.GroupView) ([]*entity.GameRecord, error) {
	now := that.clock.Now()

	var records []*entity.GameRecord
	for i := 0; i < view.Len(); i++ {
		txn := view.At(i)
		if txn.Type != entity.TxnAppCall {
			continue
		}

		stored, err := that.games.GetByID(ctx, txn.AppID)
		if err != nil {
			return nil, fmt.Errorf("failed to load app %s: %w", txn.AppID, err)
		}

		staged := *stored
		if err = that.validator.Apply(&staged, view, now); err != nil {
			return nil, fmt.Errorf("call rejected: %w", err)
		}

		records = append(records, &staged)
	}

	return records, nil
}

// settlePayments stages the balance movement of every payment: the sender
// covers amount plus fee (the fee is burned), the receiver gains amount.
func (that *Ledger) settlePayments(ctx context.Context, view entity.GroupView) (map[entity.Address]uint64, error) {
	balances := make(map[entity.Address]uint64)

	load := func(addr entity.Address) (uint64, error) {
		if balance, ok := balances[addr]; ok {
			return balance, nil
		}

		balance, err := that.accounts.GetBalance(ctx, addr)
		if err != nil {
			return 0, fmt.Errorf("failed to read balance: %w", err)
		}
		balances[addr] = balance

		return balance, nil
	}

	for i := 0; i < view.Len(); i++ {
		txn := view.At(i)
		if txn.Type != entity.TxnPayment {
			continue
		}

		senderBalance, err := load(txn.Sender)
		if err != nil {
			return nil, err
		}

		if senderBalance < txn.Amount+txn.Fee {
			return nil, apperror.ErrInsufficientFunds
		}
		balances[txn.Sender] = senderBalance - txn.Amount - txn.Fee

		receiverBalance, err := load(txn.Receiver)
		if err != nil {
			return nil, err
		}
		balances[txn.Receiver] = receiverBalance + txn.Amount
	}

	return balances, nil
}

func newAppID() (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("could not generate app id: %w", err)
	}

	return hex.EncodeToString(raw), nil
}
