// Package settlement verifies a payment and, if it checks out, signs and
// submits the underlying transaction as the facilitator's fee payer.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/CedrosPay/x402-facilitator/internal/circuitbreaker"
	"github.com/CedrosPay/x402-facilitator/internal/dedup"
	"github.com/CedrosPay/x402-facilitator/internal/solanachain"
	"github.com/CedrosPay/x402-facilitator/internal/verification"
	"github.com/CedrosPay/x402-facilitator/internal/x402types"
)

const (
	submitMaxAttempts       = 3
	submitTimeoutPerAttempt = 30 * time.Second
)

// Verifier is the subset of verification.Pipeline the settlement pipeline
// needs.
type Verifier interface {
	Verify(ctx context.Context, req x402types.VerifyRequest) (string, error)
}

// Submitter signs and submits a decoded transaction as the fee payer.
type Submitter interface {
	SignAsFeePayer(tx *solana.Transaction, feePayer solana.PrivateKey) error
	SubmitWithRetries(ctx context.Context, tx *solana.Transaction, maxAttempts int, timeoutPerAttempt time.Duration) (solana.Signature, error)
}

// chainSubmitter adapts solanachain's free functions to the Submitter
// interface so Pipeline can be tested against a fake.
type chainSubmitter struct {
	rpcClient solanachain.SubmitConfirmer
}

func (c *chainSubmitter) SignAsFeePayer(tx *solana.Transaction, feePayer solana.PrivateKey) error {
	return solanachain.SignAsFeePayer(tx, feePayer)
}

func (c *chainSubmitter) SubmitWithRetries(ctx context.Context, tx *solana.Transaction, maxAttempts int, timeoutPerAttempt time.Duration) (solana.Signature, error) {
	return solanachain.SubmitWithRetries(ctx, c.rpcClient, tx, maxAttempts, timeoutPerAttempt)
}

// NewChainSubmitter wraps a live RPC client as a Submitter.
func NewChainSubmitter(rpcClient solanachain.SubmitConfirmer) Submitter {
	return &chainSubmitter{rpcClient: rpcClient}
}

// Pipeline verifies then settles a payment on chain.
type Pipeline struct {
	Verifier  Verifier
	Dedup     *dedup.Store
	Submitter Submitter
	FeePayer  solana.PrivateKey
	Breaker   *circuitbreaker.Manager
}

// New constructs a settlement pipeline.
func New(verifier Verifier, dedupStore *dedup.Store, submitter Submitter, feePayer solana.PrivateKey, breaker *circuitbreaker.Manager) *Pipeline {
	return &Pipeline{Verifier: verifier, Dedup: dedupStore, Submitter: submitter, FeePayer: feePayer, Breaker: breaker}
}

// Settle marks the payload's dedup fingerprint, verifies it, and — only on
// success — signs and submits the underlying transaction. The returned
// payer string is populated whenever verification produced one, even on a
// settlement failure after a successful verify. err is a *verification.Error
// on verification rejection or settlement failure; never a raw chain or
// key-material error.
func (p *Pipeline) Settle(ctx context.Context, req x402types.SettleRequest) (signature string, payer string, err error) {
	verifyReq := x402types.VerifyRequest{
		PaymentPayload:      req.PaymentPayload,
		PaymentRequirements: req.PaymentRequirements,
	}

	if !p.Dedup.CheckAndMark(req.PaymentPayload.Payload.Transaction) {
		return "", "", &verification.Error{Code: verification.CodeDuplicateTx}
	}

	payer, err = p.Verifier.Verify(ctx, verifyReq)
	if err != nil {
		return "", payer, err
	}

	tx, decodeErr := solanachain.DecodeTransaction(req.PaymentPayload.Payload.Transaction)
	if decodeErr != nil {
		return "", payer, &verification.Error{Code: verification.CodeSettleError, Detail: decodeErr.Error()}
	}

	if signErr := p.Submitter.SignAsFeePayer(tx, p.FeePayer); signErr != nil {
		return "", payer, &verification.Error{Code: verification.CodeSettleError, Detail: signErr.Error()}
	}

	result, submitErr := p.Breaker.Execute(circuitbreaker.ServiceChainRPC, func() (interface{}, error) {
		return p.Submitter.SubmitWithRetries(ctx, tx, submitMaxAttempts, submitTimeoutPerAttempt)
	})
	if submitErr != nil {
		return "", payer, &verification.Error{Code: verification.CodeSettleError, Detail: submitErr.Error()}
	}

	sig, ok := result.(solana.Signature)
	if !ok {
		return "", payer, &verification.Error{Code: verification.CodeSettleError, Detail: fmt.Sprintf("unexpected submit result type %T", result)}
	}

	return sig.String(), payer, nil
}
