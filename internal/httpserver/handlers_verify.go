package httpserver

import (
	"net/http"

	"github.com/CedrosPay/x402-facilitator/internal/batch"
	"github.com/CedrosPay/x402-facilitator/internal/logger"
	"github.com/CedrosPay/x402-facilitator/internal/verification"
	"github.com/CedrosPay/x402-facilitator/internal/webhook"
	"github.com/CedrosPay/x402-facilitator/internal/x402types"
	"github.com/CedrosPay/x402-facilitator/pkg/responders"
)

func (h handlers) verify(w http.ResponseWriter, r *http.Request) {
	var req x402types.VerifyRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		responders.JSON(w, http.StatusBadRequest, x402types.VerifyResponse{IsValid: false, InvalidReason: strPtr(string(verification.CodeInvalidRequestBody))})
		return
	}

	resp := h.verifyOne(r, req)
	responders.JSON(w, http.StatusOK, resp)
}

func (h handlers) verifyOne(r *http.Request, req x402types.VerifyRequest) x402types.VerifyResponse {
	network := req.PaymentRequirements.Network

	if !h.dedupStore.CheckAndMark(req.PaymentPayload.Payload.Transaction) {
		reason := string(verification.CodeDuplicateTx)
		h.metrics.ObserveVerify(network, "rejected")
		h.emitVerifyWebhook(false, "", reason, req)
		return x402types.VerifyResponse{IsValid: false, InvalidReason: &reason}
	}

	payer, err := h.verifier.Verify(r.Context(), req)
	if err != nil {
		reason := string(verification.CodeOf(err))
		h.metrics.ObserveVerify(network, "rejected")
		logger.FromContext(r.Context()).Warn().Str("reason", reason).Msg("verify.rejected")
		h.emitVerifyWebhook(false, payer, reason, req)
		return x402types.VerifyResponse{IsValid: false, InvalidReason: &reason, Payer: optionalPtr(payer)}
	}

	h.metrics.ObserveVerify(network, "accepted")
	h.emitVerifyWebhook(true, payer, "", req)
	return x402types.VerifyResponse{IsValid: true, Payer: &payer}
}

func (h handlers) verifyBatch(w http.ResponseWriter, r *http.Request) {
	var req x402types.BatchVerifyRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		responders.JSON(w, http.StatusBadRequest, x402types.BatchVerifyResponse{})
		return
	}

	results := batch.Run(r.Context(), h.verifier, h.dedupStore, req.Items)
	for i, result := range results {
		network := req.Items[i].PaymentRequirements.Network
		if result.IsValid {
			h.metrics.ObserveVerify(network, "accepted")
		} else {
			h.metrics.ObserveVerify(network, "rejected")
		}
	}

	responders.JSON(w, http.StatusOK, x402types.BatchVerifyResponse{Results: results})
}

func (h handlers) emitVerifyWebhook(success bool, payer, reason string, req x402types.VerifyRequest) {
	if h.webhooks == nil || !h.webhooks.Enabled() {
		return
	}
	event := webhook.EventVerificationFailure
	if success {
		event = webhook.EventVerificationSuccess
	}
	h.webhooks.Enqueue(event, map[string]interface{}{
		"payer":       payer,
		"reason":      reason,
		"network":     req.PaymentRequirements.Network,
		"resource":    req.PaymentRequirements.Resource,
		"payTo":       req.PaymentRequirements.PayTo,
	})
}

func strPtr(s string) *string { return &s }

func optionalPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
