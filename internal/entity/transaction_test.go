package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGroupID(t *testing.T) {
	t.Run("Group id ignores any stamp already present", func(t *testing.T) {
		// Given: the same group, once clean and once pre-stamped
		clean := []Transaction{
			{Type: TxnAppCall, Sender: "caller", AppID: "app-1", Args: []string{ActionMove, "4"}},
		}
		stamped := []Transaction{clean[0]}
		stamped[0].GroupID = "bogus"

		// When: computing both ids
		idClean, err := ComputeGroupID(clean)
		require.NoError(t, err)
		idStamped, err := ComputeGroupID(stamped)
		require.NoError(t, err)

		// Then: they match
		assert.Equal(t, idClean, idStamped)
	})

	t.Run("Changing any member changes the id", func(t *testing.T) {
		base := []Transaction{
			{Type: TxnAppCall, Sender: "caller", AppID: "app-1", Args: []string{ActionMove, "4"}},
			{Type: TxnPayment, Sender: "x", Receiver: "escrow", Amount: 1_000_000},
		}

		idBase, err := ComputeGroupID(base)
		require.NoError(t, err)

		tampered := []Transaction{base[0], base[1]}
		tampered[1].Amount = 999_999

		idTampered, err := ComputeGroupID(tampered)
		require.NoError(t, err)

		assert.NotEqual(t, idBase, idTampered)
	})
}

func TestAccount_Signatures(t *testing.T) {
	t.Run("Signature verifies for the signing sender", func(t *testing.T) {
		account, err := NewAccount()
		require.NoError(t, err)

		txn := Transaction{Type: TxnPayment, Sender: account.Address, Receiver: "escrow", Amount: 1_000_000, GroupID: "gid"}

		signed, err := account.SignTxn(txn)
		require.NoError(t, err)

		assert.True(t, VerifyTxnSig(signed.Txn, signed.Sig))
	})

	t.Run("Signature breaks when the stamped transaction changes", func(t *testing.T) {
		account, err := NewAccount()
		require.NoError(t, err)

		txn := Transaction{Type: TxnPayment, Sender: account.Address, Receiver: "escrow", Amount: 1_000_000, GroupID: "gid"}

		signed, err := account.SignTxn(txn)
		require.NoError(t, err)

		signed.Txn.GroupID = "other-group"

		assert.False(t, VerifyTxnSig(signed.Txn, signed.Sig))
	})

	t.Run("Another account's signature does not verify", func(t *testing.T) {
		alice, err := NewAccount()
		require.NoError(t, err)
		mallory, err := NewAccount()
		require.NoError(t, err)

		txn := Transaction{Type: TxnPayment, Sender: alice.Address, Receiver: "escrow", Amount: 1_000_000}

		forged, err := mallory.SignTxn(txn)
		require.NoError(t, err)

		assert.False(t, VerifyTxnSig(forged.Txn, forged.Sig))
	})
}

func TestEscrowAddress(t *testing.T) {
	t.Run("Derivation is deterministic per app", func(t *testing.T) {
		assert.Equal(t, EscrowAddress("app-1"), EscrowAddress("app-1"))
		assert.NotEqual(t, EscrowAddress("app-1"), EscrowAddress("app-2"))
	})
}
