package httpserver

import (
	"net/http"

	"github.com/CedrosPay/x402-facilitator/internal/circuitbreaker"
	"github.com/CedrosPay/x402-facilitator/pkg/responders"
)

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	ChainRPC      string `json:"chain_rpc_breaker_state"`
	Webhook       string `json:"webhook_breaker_state"`
}

func (h handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(uptime().Seconds()),
	}
	if h.breaker != nil {
		resp.ChainRPC = h.breaker.State(circuitbreaker.ServiceChainRPC)
		resp.Webhook = h.breaker.State(circuitbreaker.ServiceWebhook)
	}
	responders.JSON(w, http.StatusOK, resp)
}
