package payment

import (
	"context"
	"fmt"
	"time"
)

// mockToken is the placeholder bearer token in mock mode. Long enough
// that masking it behaves like masking a real token.
const mockToken = "mocked-access-token"

// MockProvider simulates the gateway for local development: every call
// succeeds synchronously and nothing leaves the process.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (m *MockProvider) Token(ctx context.Context) (string, error) {
	return mockToken, nil
}

func (m *MockProvider) InitiatePayment(ctx context.Context, req STKRequest) (*STKResponse, error) {
	now := time.Now()
	return &STKResponse{
		MerchantRequestID:   fmt.Sprintf("mock-%d", now.UnixNano()),
		CheckoutRequestID:   fmt.Sprintf("ws_CO_%s_mock", now.Format("02012006150405")),
		ResponseCode:        acceptedCode,
		ResponseDescription: "Success. Request accepted for processing",
		CustomerMessage:     "Success. Request accepted for processing",
	}, nil
}

func (m *MockProvider) QueryStatus(ctx context.Context, checkoutRequestID string) (*QueryResponse, error) {
	return &QueryResponse{
		CheckoutRequestID:   checkoutRequestID,
		MerchantRequestID:   fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		ResponseCode:        acceptedCode,
		ResponseDescription: "The service request has been accepted successsfully",
		ResultCode:          "0",
		ResultDesc:          "The service request is processed successfully.",
	}, nil
}
