package settlement

import (
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
)

func buildTestTransferTransaction(t *testing.T, feePayer, authority solana.PublicKey) *solana.Transaction {
	t.Helper()

	mint := solana.NewWallet().PublicKey()
	destination := solana.NewWallet().PublicKey()
	source := solana.NewWallet().PublicKey()

	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(200_000).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(1_000).Build(),
		token.NewTransferCheckedInstruction(1_000_000, 6, source, mint, destination, authority, []solana.PublicKey{}).Build(),
	}

	tx, err := solana.NewTransaction(instructions, solana.Hash{}, solana.TransactionPayer(feePayer))
	if err != nil {
		t.Fatalf("build test transaction: %v", err)
	}
	return tx
}

func encodeBinary(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
