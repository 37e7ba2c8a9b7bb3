package solanachain

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
		token.NewTransferCheckedInstruction(
			1_000_000,
			6,
			source,
			mint,
			destination,
			authority,
			[]solana.PublicKey{},
		).Build(),
	}

	tx, err := solana.NewTransaction(instructions, solana.Hash{}, solana.TransactionPayer(feePayer))
	if err != nil {
		t.Fatalf("build test transaction: %v", err)
	}
	return tx
}

func encodeTestTransaction(t *testing.T, tx *solana.Transaction) string {
	t.Helper()
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal test transaction: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeTransaction_RoundTrip(t *testing.T) {
	feePayer := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	tx := buildTestTransferTransaction(t, feePayer, authority)
	encoded := encodeTestTransaction(t, tx)

	decoded, err := DecodeTransaction(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded.Message.Instructions) != 3 {
		t.Errorf("expected 3 instructions, got %d", len(decoded.Message.Instructions))
	}
}

func TestDecodeTransaction_InvalidBase64(t *testing.T) {
	if _, err := DecodeTransaction("not-valid-base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestPayerOfRecord(t *testing.T) {
	feePayer := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	tx := buildTestTransferTransaction(t, feePayer, authority)

	payer := PayerOfRecord(tx)
	if payer == "unknown" {
		t.Fatal("expected a concrete payer address")
	}
	if payer == feePayer.String() {
		t.Error("expected payer-of-record to differ from the fee payer")
	}
}
