package solanachain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DecodeTransaction decodes a base64-encoded, binary-serialized transaction.
// It is pure and deterministic: no chain access is involved.
func DecodeTransaction(encoded string) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return tx, nil
}

// PayerOfRecord returns the client's wallet address, identified as the
// first non-fee-payer signer (account_keys[1]). Index 0 is always the
// fee payer's slot. If the transaction has no second account, "unknown"
// is returned rather than an error: verification will usually reject
// such a malformed transaction for other reasons first.
func PayerOfRecord(tx *solana.Transaction) string {
	if len(tx.Message.AccountKeys) < 2 {
		return "unknown"
	}
	return tx.Message.AccountKeys[1].String()
}
