// Package solanachain wraps gagliardetto/solana-go with the narrow set of
// decode/sign/submit operations the facilitator needs.
package solanachain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ParsePrivateKey parses a fee-payer private key from either base58 or a
// JSON byte-array ("[1,2,3,...,64]", the Phantom wallet export format).
func ParsePrivateKey(keyStr string) (solana.PrivateKey, error) {
	keyStr = strings.TrimSpace(keyStr)
	if keyStr == "" {
		return solana.PrivateKey{}, fmt.Errorf("private key string is empty")
	}

	if !strings.HasPrefix(keyStr, "[") {
		pk, err := solana.PrivateKeyFromBase58(keyStr)
		if err != nil {
			return solana.PrivateKey{}, fmt.Errorf("invalid base58 private key: %w", err)
		}
		return pk, nil
	}

	return parsePrivateKeyArray(keyStr)
}

func parsePrivateKeyArray(keyStr string) (solana.PrivateKey, error) {
	if !strings.HasSuffix(keyStr, "]") {
		return solana.PrivateKey{}, fmt.Errorf("private key array must be in JSON format: [1,2,3,...]")
	}

	parts := strings.Split(keyStr[1:len(keyStr)-1], ",")
	if len(parts) != 64 {
		return solana.PrivateKey{}, fmt.Errorf("private key must be a 64-byte array, got %d bytes", len(parts))
	}

	var keyBytes [64]byte
	for i, part := range parts {
		val, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return solana.PrivateKey{}, fmt.Errorf("invalid byte value at position %d: %s (%w)", i, part, err)
		}
		if val < 0 || val > 255 {
			return solana.PrivateKey{}, fmt.Errorf("byte value at position %d out of range (0-255): %d", i, val)
		}
		keyBytes[i] = byte(val)
	}

	return solana.PrivateKey(keyBytes[:]), nil
}
