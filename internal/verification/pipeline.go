package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/CedrosPay/x402-facilitator/internal/accountcache"
	"github.com/CedrosPay/x402-facilitator/internal/solanachain"
	"github.com/CedrosPay/x402-facilitator/internal/x402types"
)

var supportedNetworks = map[string]bool{
	"solana":         true,
	"solana-devnet":  true,
	"solana-testnet": true,
}

const supportedScheme = "exact"

// Pipeline runs the structural and chain-state checks that decide whether
// a submitted transaction satisfies a resource server's payment
// requirements. It never touches the dedup store — callers are
// responsible for marking a transaction's fingerprint before invoking
// Verify (see DESIGN.md's settle-dedup decision).
type Pipeline struct {
	Accounts             *accountcache.Cache
	PaymentExpirySeconds int64
}

// New constructs a verification pipeline.
func New(accounts *accountcache.Cache, paymentExpirySeconds int64) *Pipeline {
	return &Pipeline{Accounts: accounts, PaymentExpirySeconds: paymentExpirySeconds}
}

// Verify runs the full check sequence and returns the payer-of-record
// pubkey string on success, or a stable *Error on rejection. Any panic
// during the run is recovered and reported as CodeUnexpectedVerifyError.
func (p *Pipeline) Verify(ctx context.Context, req x402types.VerifyRequest) (payer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			payer = ""
			err = newError(CodeUnexpectedVerifyError, fmt.Sprintf("panic: %v", r))
		}
	}()

	payload := req.PaymentPayload
	requirements := req.PaymentRequirements

	if payload.Timestamp != nil {
		age := time.Now().Unix() - *payload.Timestamp
		if age > p.PaymentExpirySeconds {
			return "", newError(CodePaymentExpired, fmt.Sprintf("age %ds exceeds %ds", age, p.PaymentExpirySeconds))
		}
	}

	if payload.Scheme != requirements.Scheme || payload.Scheme != supportedScheme {
		return "", newError(CodeUnsupportedScheme, payload.Scheme)
	}

	if payload.Network != requirements.Network || !supportedNetworks[requirements.Network] {
		return "", newError(CodeInvalidNetwork, requirements.Network)
	}

	tx, err := solanachain.DecodeTransaction(payload.Payload.Transaction)
	if err != nil {
		return "", newError(CodeDecodeError, err.Error())
	}

	feePayer, err := solana.PublicKeyFromBase58(requirements.Extra.FeePayer)
	if err != nil {
		return "", newError(CodeDecodeError, "invalid fee payer pubkey")
	}

	payer = solanachain.PayerOfRecord(tx)

	hasCreateATA, err := instructionCount(tx)
	if err != nil {
		return "", err
	}

	if err := verifyComputeLimitInstruction(tx, tx.Message.Instructions[0]); err != nil {
		return "", err
	}
	if err := verifyComputePriceInstruction(tx, tx.Message.Instructions[1]); err != nil {
		return "", err
	}

	if err := verifyFeePayerSafety(tx, feePayer); err != nil {
		return "", err
	}

	transferIdx := 2
	if hasCreateATA {
		if err := verifyCreateATAInstruction(tx, tx.Message.Instructions[2], requirements); err != nil {
			return "", err
		}
		transferIdx = 3
	}

	if err := verifyTransferInstruction(ctx, tx, tx.Message.Instructions[transferIdx], requirements, feePayer, hasCreateATA, p.Accounts); err != nil {
		return "", err
	}

	return payer, nil
}
