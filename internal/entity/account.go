package entity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Address identifies a party on the ledger: the hex encoding of an ed25519
// public key, or a derived program address for escrow accounts.
type Address string

const ZeroAddress Address = ""

// Account holds a keypair for a signing party (players, app creator).
type Account struct {
	Address Address
	private ed25519.PrivateKey
}

func NewAccount() (*Account, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("could not generate keypair: %w", err)
	}

	return &Account{
		Address: Address(hex.EncodeToString(pub)),
		private: priv,
	}, nil
}

// SignTxn authorizes a single stamped transaction with the account's key.
func (that *Account) SignTxn(txn Transaction) (SignedTransaction, error) {
	digest, err := TxnDigest(txn)
	if err != nil {
		return SignedTransaction{}, err
	}

	return SignedTransaction{
		Txn: txn,
		Sig: ed25519.Sign(that.private, digest),
	}, nil
}

// TxnDigest is the canonical signing payload of a transaction, group stamp
// included, so a signature cannot be replayed outside its group.
func TxnDigest(txn Transaction) ([]byte, error) {
	raw, err := json.Marshal(txn)
	if err != nil {
		return nil, fmt.Errorf("could not marshal transaction: %w", err)
	}

	sum := sha256.Sum256(raw)

	return sum[:], nil
}

// VerifyTxnSig checks that sig is the sender's ed25519 signature over the
// transaction digest.
func VerifyTxnSig(txn Transaction, sig []byte) bool {
	pub, err := hex.DecodeString(string(txn.Sender))
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}

	digest, err := TxnDigest(txn)
	if err != nil {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(pub), digest, sig)
}

// EscrowAddress derives the program address of the escrow guard paired
// with one app, the way a logic signature's address is derived from its
// compiled program.
func EscrowAddress(appID string) Address {
	sum := sha256.Sum256([]byte("escrow/" + appID))

	return Address(hex.EncodeToString(sum[:]))
}
