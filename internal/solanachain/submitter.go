package solanachain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
)

// SubmitConfirmer is the subset of *rpc.Client the submitter depends on.
// Narrowing to an interface lets tests substitute a fake RPC backend.
type SubmitConfirmer interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

const pollInterval = 500 * time.Millisecond

// SubmitAndConfirm sends tx and polls signature status at ~500ms cadence
// until it is confirmed, fails on chain, or timeout elapses.
func SubmitAndConfirm(ctx context.Context, rpcClient SubmitConfirmer, tx *solana.Transaction, timeout time.Duration) (solana.Signature, error) {
	sig, err := rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if time.Now().After(deadline) {
			return solana.Signature{}, fmt.Errorf("confirmation_timeout")
		}

		statuses, err := rpcClient.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			// Transient RPC error during polling: logged, not terminal.
			log.Warn().Err(err).Str("signature", sig.String()).Msg("submitter.poll_status_failed")
			select {
			case <-ctx.Done():
				return solana.Signature{}, ctx.Err()
			case <-ticker.C:
				continue
			}
		}

		if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return solana.Signature{}, fmt.Errorf("transaction_failed: %v", status.Err)
			}
			if status.ConfirmationStatus != "" {
				return sig, nil
			}
		}

		select {
		case <-ctx.Done():
			return solana.Signature{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SubmitWithRetries wraps SubmitAndConfirm with exponential backoff of
// 2^(attempt-1) seconds between attempts. Only the last failure is
// surfaced. Resubmitting the same transaction on retry is safe: the chain
// rejects duplicates by signature cheaply.
func SubmitWithRetries(ctx context.Context, rpcClient SubmitConfirmer, tx *solana.Transaction, maxAttempts int, timeout time.Duration) (solana.Signature, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sig, err := SubmitAndConfirm(ctx, rpcClient, tx, timeout)
		if err == nil {
			return sig, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return solana.Signature{}, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return solana.Signature{}, fmt.Errorf("all submission attempts failed: %w", lastErr)
}
