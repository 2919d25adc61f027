package apperror

import "errors"

var (
	ErrBadGroupShape     = errors.New("malformed transaction group")
	ErrPlayersAlreadySet = errors.New("players are already set")
	ErrGameFinished      = errors.New("game is already finished")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrInvalidCell       = errors.New("invalid cell index")
	ErrDeadlinePassed    = errors.New("move deadline has passed")
	ErrNoRefundDue       = errors.New("neither a winner nor a tie to refund")
	ErrWrongAmount       = errors.New("wrong transfer amount")
	ErrWrongReceiver     = errors.New("wrong transfer receiver")
	ErrWrongSender       = errors.New("wrong transfer sender")
	ErrUnsafeTransfer    = errors.New("transfer carries unsafe fields")
	ErrWrongApp          = errors.New("group is not bound to this app")
	ErrUnauthorized      = errors.New("transaction is not authorized")
	ErrInsufficientFunds = errors.New("insufficient balance")
)
