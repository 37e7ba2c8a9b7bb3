package solanachain

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func solanaTestWallet(t *testing.T) solana.PrivateKey {
	t.Helper()
	return solana.NewWallet().PrivateKey
}
