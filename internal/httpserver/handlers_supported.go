package httpserver

import (
	"net/http"

	"github.com/CedrosPay/x402-facilitator/internal/x402types"
	"github.com/CedrosPay/x402-facilitator/pkg/responders"
)

var supportedNetworks = []string{"solana", "solana-devnet", "solana-testnet"}

func (h handlers) supported(w http.ResponseWriter, r *http.Request) {
	responders.JSON(w, http.StatusOK, x402types.SupportedResponse{
		Schemes: []x402types.SchemeSupport{
			{Scheme: "exact", Networks: supportedNetworks},
		},
	})
}
