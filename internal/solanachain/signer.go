package solanachain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SignAsFeePayer signs tx's message with feePayer and places the resulting
// signature in signature slot 0, creating the slot if the list is empty.
// The client is assumed to have already signed the remaining required
// slots; this only ever touches slot 0.
func SignAsFeePayer(tx *solana.Transaction, feePayer solana.PrivateKey) error {
	messageBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	signature, err := feePayer.Sign(messageBytes)
	if err != nil {
		return fmt.Errorf("sign message: %w", err)
	}

	if len(tx.Signatures) == 0 {
		tx.Signatures = append(tx.Signatures, signature)
	} else {
		tx.Signatures[0] = signature
	}
	return nil
}
