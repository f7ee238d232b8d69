package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// STKRequest carries the caller-supplied fields for one STK push.
// Amount is forwarded to the gateway exactly as received; the gateway
// owns range and type validation.
type STKRequest struct {
	Phone  string
	Amount json.Number
	Name   string
}

// STKResponse is the gateway's acknowledgement of an STK push. The push
// itself completes asynchronously via the callback URL.
type STKResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// QueryResponse is the gateway's answer to an STK push status query.
type QueryResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

type Provider interface {
	Token(ctx context.Context) (string, error)
	InitiatePayment(ctx context.Context, req STKRequest) (*STKResponse, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*QueryResponse, error)
}

// ErrNoCredentials means the consumer key or secret was never configured.
// Distinct from a transient gateway failure so callers can report a
// configuration problem instead of retrying.
var ErrNoCredentials = errors.New("mpesa: consumer key/secret not configured")

// GatewayError is a transport failure or non-2xx reply from the gateway.
type GatewayError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mpesa gateway: %v", e.Err)
	}
	return fmt.Sprintf("mpesa gateway: status %d: %s", e.StatusCode, e.Body)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// RejectedError is a logical rejection: the gateway answered with a valid
// HTTP response whose ResponseCode is not the accepted "0".
type RejectedError struct {
	Code        string
	Description string
	Body        string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("mpesa rejected: code=%s %s", e.Code, e.Description)
}

// MaskToken truncates a token for logs and API responses. At most the
// first 6 characters ever leave this process.
func MaskToken(token string) string {
	if len(token) > 6 {
		token = token[:6]
	}
	return token + "..."
}
