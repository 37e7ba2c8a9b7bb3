package verification

import (
	"context"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/CedrosPay/x402-facilitator/internal/accountcache"
	"github.com/CedrosPay/x402-facilitator/internal/x402types"
)

type fakeFetcher struct {
	missing map[string]bool
}

func (f *fakeFetcher) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if f.missing != nil && f.missing[account.String()] {
		return nil, errAccountNotFound
	}
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{}}, nil
}

var errAccountNotFound = errTest("account not found")

type errTest string

func (e errTest) Error() string { return string(e) }

func newTestAccounts(t *testing.T, missing ...solana.PublicKey) *accountcache.Cache {
	t.Helper()
	missingSet := make(map[string]bool, len(missing))
	for _, m := range missing {
		missingSet[m.String()] = true
	}
	return accountcache.New(&fakeFetcher{missing: missingSet}, 100, time.Minute)
}

// buildVerifiableTransaction constructs a transaction that satisfies every
// structural check: compute-limit, compute-price, optional CreateATA, and
// a TransferChecked instruction whose destination is pay_to's ATA.
func buildVerifiableTransaction(t *testing.T, feePayer, authority, payTo, asset solana.PublicKey, amount uint64, includeCreateATA bool) *solana.Transaction {
	t.Helper()

	source := solana.NewWallet().PublicKey()
	destination, _, err := solana.FindAssociatedTokenAddress(payTo, asset)
	if err != nil {
		t.Fatalf("derive ata: %v", err)
	}

	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(200_000).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(1_000).Build(),
	}

	if includeCreateATA {
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(authority, payTo, asset).Build())
	}

	instructions = append(instructions, token.NewTransferCheckedInstruction(
		amount,
		6,
		source,
		asset,
		destination,
		authority,
		[]solana.PublicKey{},
	).Build())

	tx, err := solana.NewTransaction(instructions, solana.Hash{}, solana.TransactionPayer(feePayer))
	if err != nil {
		t.Fatalf("build transaction: %v", err)
	}
	return tx
}

func buildVerifyRequest(t *testing.T, tx *solana.Transaction, feePayer, payTo, asset solana.PublicKey, amount uint64) x402types.VerifyRequest {
	t.Helper()
	encoded := encodeTx(t, tx)
	return x402types.VerifyRequest{
		PaymentPayload: x402types.PaymentPayload{
			X402Version: 1,
			Scheme:      "exact",
			Network:     "solana",
			Payload:     x402types.SvmPayload{Transaction: encoded},
		},
		PaymentRequirements: x402types.PaymentRequirements{
			Scheme:            "exact",
			Network:           "solana",
			MaxAmountRequired: itoa(amount),
			Asset:             asset.String(),
			PayTo:             payTo.String(),
			Extra:             x402types.ExtraFields{FeePayer: feePayer.String()},
		},
	}
}

func encodeTx(t *testing.T, tx *solana.Transaction) string {
	t.Helper()
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal transaction: %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}
