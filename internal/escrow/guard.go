// Package escrow guards the balance that holds both wagers. The guard is
// stateless and paired 1:1 with one game instance; it never reads the
// game's record, only the transaction group presented to it.
package escrow

import (
	"github.com/ledgerplay/tictactoe-wager/internal/apperror"
	"github.com/ledgerplay/tictactoe-wager/internal/entity"
)

type Guard struct {
	appID      string
	feeCeiling uint64
}

// NewGuard pairs a guard with one game app. feeCeiling bounds the fee of
// every transfer leaving the escrow.
func NewGuard(appID string, feeCeiling uint64) *Guard {
	return &Guard{
		appID:      appID,
		feeCeiling: feeCeiling,
	}
}

// Authorize permits funds to leave the escrow only when the group's head
// is a call to the paired app, and every accompanying transfer keeps its
// fee under the ceiling with the close-out and key-rotation fields zeroed.
// The flag checks stop a payout that smuggles in an account drain or an
// account takeover. Group sizes other than 2 or 3 are rejected outright.
func (that *Guard) Authorize(group entity.GroupView) error {
	if group.Len() != 2 && group.Len() != 3 {
		return apperror.ErrBadGroupShape
	}

	head := group.At(0)
	if head.Type != entity.TxnAppCall || head.AppID != that.appID {
		return apperror.ErrWrongApp
	}

	for i := 1; i < group.Len(); i++ {
		txn := group.At(i)

		if txn.Fee > that.feeCeiling {
			return apperror.ErrUnsafeTransfer
		}

		if txn.CloseTo != entity.ZeroAddress || txn.RekeyTo != entity.ZeroAddress {
			return apperror.ErrUnsafeTransfer
		}
	}

	return nil
}
