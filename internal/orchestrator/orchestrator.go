// Package orchestrator builds the exact transaction groups the game
// validator and the escrow guard require: counts, order, parties, amounts,
// one binding group ID stamped on every member, and the right
// authorization per member. It never assumes a submission succeeded; the
// ledger either commits the whole group or rejects it.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ledgerplay/tictactoe-wager/internal/entity"
)

var (
	ErrNotDeployed     = errors.New("the app has not been deployed")
	ErrAlreadyDeployed = errors.New("the app is already deployed")
	ErrAlreadyStarted  = errors.New("the game has already started")
	ErrInvalidPlayer   = errors.New("invalid player id, expected X or O")
)

// ledgerClient is the slice of the ledger the orchestrator needs.
type ledgerClient interface {
	Deploy(ctx context.Context, signed entity.SignedTransaction) (string, entity.Address, error)
	SubmitGroup(ctx context.Context, signed []entity.SignedTransaction) error
}

type Orchestrator struct {
	logger *slog.Logger
	client ledgerClient

	creator *entity.Account
	playerX *entity.Account
	playerO *entity.Account

	wager uint64
	fee   uint64

	appID      string
	escrowAddr entity.Address
	started    bool
}

func New(logger *slog.Logger, client ledgerClient, creator, playerX, playerO *entity.Account, wager, fee uint64) *Orchestrator {
	return &Orchestrator{
		logger:  logger.With("component", "orchestrator"),
		client:  client,
		creator: creator,
		playerX: playerX,
		playerO: playerO,
		wager:   wager,
		fee:     fee,
	}
}

func (that *Orchestrator) AppID() string {
	return that.appID
}

func (that *Orchestrator) EscrowAddress() entity.Address {
	return that.escrowAddr
}

// Deploy submits the creation call; the ledger assigns the app ID and
// derives the paired escrow address.
func (that *Orchestrator) Deploy(ctx context.Context) error {
	if that.appID != "" {
		return ErrAlreadyDeployed
	}

	creation := entity.Transaction{
		Type:   entity.TxnAppCall,
		Sender: that.creator.Address,
	}

	signed, err := that.creator.SignTxn(creation)
	if err != nil {
		return err
	}

	appID, escrowAddr, err := that.client.Deploy(ctx, signed)
	if err != nil {
		return fmt.Errorf("deploy rejected: %w", err)
	}

	that.appID = appID
	that.escrowAddr = escrowAddr
	that.logger.Info("game deployed", "app_id", appID, "escrow", escrowAddr)

	return nil
}

// StartGame assembles the setup group: the SetupPlayers call plus both
// wager deposits into the escrow, in that exact order. Player X's deposit
// comes first, making X the first to move.
func (that *Orchestrator) StartGame(ctx context.Context) error {
	if that.appID == "" {
		return ErrNotDeployed
	}

	if that.started {
		return ErrAlreadyStarted
	}

	txns := []entity.Transaction{
		that.appCall(that.creator.Address, entity.ActionSetupPlayers),
		that.payment(that.playerX.Address, that.escrowAddr, that.wager),
		that.payment(that.playerO.Address, that.escrowAddr, that.wager),
	}

	if err := stampGroup(txns); err != nil {
		return err
	}

	signed, err := signAll(txns, that.creator, that.playerX, that.playerO)
	if err != nil {
		return err
	}

	if err = that.client.SubmitGroup(ctx, signed); err != nil {
		return fmt.Errorf("setup group rejected: %w", err)
	}

	that.started = true
	that.logger.Info("game started", "app_id", that.appID)

	return nil
}

// PlayAction submits a solo move call for the given player ("X" or "O")
// at the given position.
func (that *Orchestrator) PlayAction(ctx context.Context, playerID string, position int) error {
	if that.appID == "" {
		return ErrNotDeployed
	}

	player, err := that.player(playerID)
	if err != nil {
		return err
	}

	txns := []entity.Transaction{
		that.appCall(player.Address, entity.ActionMove, fmt.Sprintf("%d", position)),
	}

	if err = stampGroup(txns); err != nil {
		return err
	}

	signed, err := signAll(txns, player)
	if err != nil {
		return err
	}

	if err = that.client.SubmitGroup(ctx, signed); err != nil {
		return fmt.Errorf("move rejected: %w", err)
	}

	that.logger.Info("move committed", "app_id", that.appID, "player", playerID, "position", position)

	return nil
}

// WinRefund assembles the two-transaction payout: the MoneyRefund call
// signed by the claiming player, and the escrow's transfer of twice the
// wager to that player, authorized by the escrow's logic rather than a key.
func (that *Orchestrator) WinRefund(ctx context.Context, playerID string) error {
	if that.appID == "" {
		return ErrNotDeployed
	}

	player, err := that.player(playerID)
	if err != nil {
		return err
	}

	txns := []entity.Transaction{
		that.appCall(player.Address, entity.ActionRefund),
		that.payment(that.escrowAddr, player.Address, 2*that.wager),
	}

	if err = stampGroup(txns); err != nil {
		return err
	}

	call, err := player.SignTxn(txns[0])
	if err != nil {
		return err
	}

	signed := []entity.SignedTransaction{
		call,
		{Txn: txns[1], LogicSig: true},
	}

	if err = that.client.SubmitGroup(ctx, signed); err != nil {
		return fmt.Errorf("win refund rejected: %w", err)
	}

	that.logger.Info("win refund committed", "app_id", that.appID, "winner", playerID)

	return nil
}

// TieRefund assembles the three-transaction split: the MoneyRefund call
// plus one wager back to each player, both transfers logic-authorized by
// the escrow.
func (that *Orchestrator) TieRefund(ctx context.Context) error {
	if that.appID == "" {
		return ErrNotDeployed
	}

	txns := []entity.Transaction{
		that.appCall(that.creator.Address, entity.ActionRefund),
		that.payment(that.escrowAddr, that.playerX.Address, that.wager),
		that.payment(that.escrowAddr, that.playerO.Address, that.wager),
	}

	if err := stampGroup(txns); err != nil {
		return err
	}

	call, err := that.creator.SignTxn(txns[0])
	if err != nil {
		return err
	}

	signed := []entity.SignedTransaction{
		call,
		{Txn: txns[1], LogicSig: true},
		{Txn: txns[2], LogicSig: true},
	}

	if err = that.client.SubmitGroup(ctx, signed); err != nil {
		return fmt.Errorf("tie refund rejected: %w", err)
	}

	that.logger.Info("tie refund committed", "app_id", that.appID)

	return nil
}

// FundEscrow tops the escrow up from the creator's account so the escrow
// can cover payout fees.
func (that *Orchestrator) FundEscrow(ctx context.Context, amount uint64) error {
	if that.appID == "" {
		return ErrNotDeployed
	}

	txns := []entity.Transaction{
		that.payment(that.creator.Address, that.escrowAddr, amount),
	}

	if err := stampGroup(txns); err != nil {
		return err
	}

	signed, err := signAll(txns, that.creator)
	if err != nil {
		return err
	}

	if err = that.client.SubmitGroup(ctx, signed); err != nil {
		return fmt.Errorf("escrow funding rejected: %w", err)
	}

	that.logger.Info("escrow funded", "app_id", that.appID, "amount", amount)

	return nil
}

func (that *Orchestrator) player(playerID string) (*entity.Account, error) {
	switch playerID {
	case "X":
		return that.playerX, nil
	case "O":
		return that.playerO, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlayer, playerID)
	}
}

func (that *Orchestrator) appCall(sender entity.Address, args ...string) entity.Transaction {
	return entity.Transaction{
		Type:   entity.TxnAppCall,
		Sender: sender,
		AppID:  that.appID,
		Args:   args,
	}
}

func (that *Orchestrator) payment(sender, receiver entity.Address, amount uint64) entity.Transaction {
	return entity.Transaction{
		Type:     entity.TxnPayment,
		Sender:   sender,
		Receiver: receiver,
		Amount:   amount,
		Fee:      that.fee,
	}
}

// stampGroup computes the binding identifier and stamps every member.
func stampGroup(txns []entity.Transaction) error {
	groupID, err := entity.ComputeGroupID(txns)
	if err != nil {
		return err
	}

	for i := range txns {
		txns[i].GroupID = groupID
	}

	return nil
}

// signAll signs txns[i] with signers[i]; counts must match.
func signAll(txns []entity.Transaction, signers ...*entity.Account) ([]entity.SignedTransaction, error) {
	if len(txns) != len(signers) {
		return nil, fmt.Errorf("have %d transactions but %d signers", len(txns), len(signers))
	}

	signed := make([]entity.SignedTransaction, len(txns))
	for i, txn := range txns {
		s, err := signers[i].SignTxn(txn)
		if err != nil {
			return nil, err
		}
		signed[i] = s
	}

	return signed, nil
}
