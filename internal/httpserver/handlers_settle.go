package httpserver

import (
	"net/http"

	"github.com/CedrosPay/x402-facilitator/internal/logger"
	"github.com/CedrosPay/x402-facilitator/internal/verification"
	"github.com/CedrosPay/x402-facilitator/internal/webhook"
	"github.com/CedrosPay/x402-facilitator/internal/x402types"
	"github.com/CedrosPay/x402-facilitator/pkg/responders"
)

func (h handlers) settle(w http.ResponseWriter, r *http.Request) {
	var req x402types.SettleRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		reason := string(verification.CodeInvalidRequestBody)
		responders.JSON(w, http.StatusBadRequest, x402types.SettleResponse{Success: false, ErrorReason: &reason})
		return
	}

	network := req.PaymentRequirements.Network

	signature, payer, err := h.settler.Settle(r.Context(), req)
	if err != nil {
		reason := settleErrorReason(err)
		h.metrics.ObserveSettle(network, "rejected")
		logger.FromContext(r.Context()).Warn().Str("reason", reason).Msg("settle.rejected")
		h.emitSettleWebhook(false, payer, "", reason, req)
		responders.JSON(w, http.StatusOK, x402types.SettleResponse{
			Success:     false,
			Network:     network,
			Payer:       optionalPtr(payer),
			ErrorReason: &reason,
		})
		return
	}

	h.metrics.ObserveSettle(network, "settled")
	h.emitSettleWebhook(true, payer, signature, "", req)
	responders.JSON(w, http.StatusOK, x402types.SettleResponse{
		Success:     true,
		Network:     network,
		Transaction: &signature,
		Payer:       &payer,
	})
}

// settleErrorReason formats the wire errorReason for a failed settlement.
// Every tag but settle_error is byte-stable on its own; settle_error
// carries the underlying failure as "settle_error: <detail>".
func settleErrorReason(err error) string {
	if verification.CodeOf(err) == verification.CodeSettleError {
		return err.Error()
	}
	return string(verification.CodeOf(err))
}

func (h handlers) emitSettleWebhook(success bool, payer, signature, reason string, req x402types.SettleRequest) {
	if h.webhooks == nil || !h.webhooks.Enabled() {
		return
	}
	event := webhook.EventSettlementFailure
	if success {
		event = webhook.EventSettlementSuccess
	}
	h.webhooks.Enqueue(event, map[string]interface{}{
		"payer":       payer,
		"signature":   signature,
		"reason":      reason,
		"network":     req.PaymentRequirements.Network,
		"resource":    req.PaymentRequirements.Resource,
		"payTo":       req.PaymentRequirements.PayTo,
	})
}
