package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

type TxnType string

const (
	TxnAppCall TxnType = "appl"
	TxnPayment TxnType = "pay"
)

// Call actions understood by the game validator.
const (
	ActionSetupPlayers = "SetupPlayers"
	ActionMove         = "ActionMove"
	ActionRefund       = "MoneyRefund"
)

// Transaction is one member of an atomically committed group. App calls
// carry AppID and Args; payments carry Receiver and Amount. CloseTo and
// RekeyTo mirror the ledger's close-out and key-rotation fields; a safe
// payment keeps both zeroed.
type Transaction struct {
	Type     TxnType  `json:"type"`
	Sender   Address  `json:"sender"`
	Receiver Address  `json:"receiver,omitempty"`
	Amount   uint64   `json:"amount,omitempty"`
	Fee      uint64   `json:"fee"`
	AppID    string   `json:"app_id,omitempty"`
	Args     []string `json:"args,omitempty"`
	CloseTo  Address  `json:"close_to,omitempty"`
	RekeyTo  Address  `json:"rekey_to,omitempty"`
	GroupID  string   `json:"group_id,omitempty"`
}

// Action returns the call action token, or "" for non-call transactions.
func (that *Transaction) Action() string {
	if that.Type != TxnAppCall || len(that.Args) == 0 {
		return ""
	}
	return that.Args[0]
}

// SignedTransaction is a transaction plus its authorization: either an
// ed25519 signature by the sender, or logic authorization resolved by the
// ledger against the escrow guard registered for the sending address.
type SignedTransaction struct {
	Txn      Transaction `json:"txn"`
	Sig      []byte      `json:"sig,omitempty"`
	LogicSig bool        `json:"logic_sig,omitempty"`
}

// ComputeGroupID derives the identifier that binds a group together: the
// sha256 of the canonical encoding of the unsigned transactions with their
// group fields cleared. Every member must be stamped with it before signing.
func ComputeGroupID(txns []Transaction) (string, error) {
	plain := make([]Transaction, len(txns))
	for i, txn := range txns {
		txn.GroupID = ""
		plain[i] = txn
	}

	raw, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("could not marshal group: %w", err)
	}

	sum := sha256.Sum256(raw)

	return hex.EncodeToString(sum[:]), nil
}

// GroupView is the read-only snapshot of a committed-together group that
// both the game validator and the escrow guard evaluate independently.
// Neither side ever sees the other's state, only this list.
type GroupView struct {
	txns []Transaction
}

func NewGroupView(txns []Transaction) GroupView {
	copied := make([]Transaction, len(txns))
	copy(copied, txns)

	return GroupView{txns: copied}
}

func (that GroupView) Len() int {
	return len(that.txns)
}

// At returns the transaction at index i by value; mutating the copy does
// not affect the group.
func (that GroupView) At(i int) Transaction {
	return that.txns[i]
}
