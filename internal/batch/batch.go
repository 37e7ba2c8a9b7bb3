// Package batch fans a slice of verification requests out across a fixed
// worker pool sized to the machine's CPU count.
package batch

import (
	"context"
	"runtime"
	"sync"

	"github.com/CedrosPay/x402-facilitator/internal/dedup"
	"github.com/CedrosPay/x402-facilitator/internal/verification"
	"github.com/CedrosPay/x402-facilitator/internal/x402types"
)

// Verifier is the subset of verification.Pipeline the batch runner needs.
type Verifier interface {
	Verify(ctx context.Context, req x402types.VerifyRequest) (string, error)
}

// Run verifies every request in reqs, returning results aligned
// positionally to the input. There is no guarantee of inter-request
// ordering in when each result is produced, only in where it lands.
// Each item marks its own dedup fingerprint before verifying. Empty input
// returns an empty slice without starting a worker pool.
func Run(ctx context.Context, verifier Verifier, dedupStore *dedup.Store, reqs []x402types.VerifyRequest) []x402types.VerifyResponse {
	results := make([]x402types.VerifyResponse, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	workers := runtime.NumCPU()
	if workers > len(reqs) {
		workers = len(reqs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = verifyOne(ctx, verifier, dedupStore, reqs[i])
			}
		}()
	}

	for i := range reqs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func verifyOne(ctx context.Context, verifier Verifier, dedupStore *dedup.Store, req x402types.VerifyRequest) x402types.VerifyResponse {
	if !dedupStore.CheckAndMark(req.PaymentPayload.Payload.Transaction) {
		reason := string(verification.CodeDuplicateTx)
		return x402types.VerifyResponse{IsValid: false, InvalidReason: &reason}
	}

	payer, err := verifier.Verify(ctx, req)
	if err != nil {
		reason := string(verification.CodeOf(err))
		return x402types.VerifyResponse{IsValid: false, InvalidReason: &reason}
	}

	return x402types.VerifyResponse{IsValid: true, Payer: &payer}
}
