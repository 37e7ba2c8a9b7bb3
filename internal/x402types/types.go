// Package x402types defines the wire types exchanged with resource
// servers over the x402 "exact" scheme on Solana-style chains.
package x402types

// SvmPayload carries the base64-encoded, binary-serialized transaction a
// client has constructed and partially signed.
type SvmPayload struct {
	Transaction string `json:"transaction"`
}

// PaymentPayload is the client's proof-of-payment submission.
type PaymentPayload struct {
	X402Version int        `json:"x402Version"`
	Scheme      string     `json:"scheme"`
	Network     string     `json:"network"`
	Payload     SvmPayload `json:"payload"`
	Timestamp   *int64     `json:"timestamp,omitempty"`
}

// ExtraFields carries scheme-specific requirements beyond the common
// fields, namely which wallet the facilitator must sign with.
type ExtraFields struct {
	FeePayer string `json:"feePayer"`
}

// PaymentRequirements is the resource server's authoritative statement of
// what counts as valid payment for a protected resource.
type PaymentRequirements struct {
	Scheme            string      `json:"scheme"`
	Network           string      `json:"network"`
	MaxAmountRequired string      `json:"maxAmountRequired"`
	Asset             string      `json:"asset"`
	PayTo             string      `json:"payTo"`
	Resource          string      `json:"resource"`
	Description       string      `json:"description"`
	MimeType          string      `json:"mimeType"`
	MaxTimeoutSeconds int64       `json:"maxTimeoutSeconds"`
	Extra             ExtraFields `json:"extra"`
}

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// VerifyResponse is the body returned by POST /verify.
type VerifyResponse struct {
	IsValid       bool    `json:"isValid"`
	InvalidReason *string `json:"invalidReason,omitempty"`
	Payer         *string `json:"payer,omitempty"`
}

// BatchVerifyRequest is the body of POST /verify/batch.
type BatchVerifyRequest struct {
	Items []VerifyRequest `json:"items"`
}

// BatchVerifyResponse is the body returned by POST /verify/batch, with
// results aligned positionally to the request items.
type BatchVerifyResponse struct {
	Results []VerifyResponse `json:"results"`
}

// SettleRequest is the body of POST /settle.
type SettleRequest struct {
	PaymentPayload      PaymentPayload      `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// SettleResponse is the body returned by POST /settle.
type SettleResponse struct {
	Success     bool    `json:"success"`
	Network     string  `json:"network"`
	Transaction *string `json:"transaction,omitempty"`
	Payer       *string `json:"payer,omitempty"`
	ErrorReason *string `json:"errorReason,omitempty"`
}

// SchemeSupport describes one scheme and the networks it is offered on.
type SchemeSupport struct {
	Scheme   string   `json:"scheme"`
	Networks []string `json:"networks"`
}

// SupportedResponse is the body returned by GET /supported.
type SupportedResponse struct {
	Schemes []SchemeSupport `json:"schemes"`
}
