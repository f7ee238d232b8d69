package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"pesabridge/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CallbackHandler struct{}

func NewCallbackHandler() *CallbackHandler { return &CallbackHandler{} }

// Handle acknowledges the gateway's payment-result callback. The body is
// logged verbatim and never parsed or stored; the gateway only needs the
// 200 so it stops redelivering.
func (h *CallbackHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("[MPESA callback] read body: %v", err)
	} else {
		log.Printf("[MPESA callback] %s", body)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type simulateRequest struct {
	Amount json.Number `json:"amount"`
	Phone  string      `json:"phone"`
}

// Simulate synthesizes a successful callback in the gateway's shape so the
// callback consumer can be exercised locally, echoing the provided amount
// and phone or sandbox defaults.
func (h *CallbackHandler) Simulate(c *gin.Context) {
	var req simulateRequest
	_ = c.ShouldBindJSON(&req)
	if req.Amount == "" {
		req.Amount = "1"
	}
	if req.Phone == "" {
		req.Phone = "254708374149"
	}
	now := time.Now()
	receipt := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:10]
	c.JSON(http.StatusOK, payment.CallbackEnvelope{
		Body: payment.CallbackBody{
			StkCallback: payment.StkCallback{
				MerchantRequestID: fmt.Sprintf("29115-%d-1", now.Unix()),
				CheckoutRequestID: fmt.Sprintf("ws_CO_%s", now.Format("02012006150405")),
				ResultCode:        0,
				ResultDesc:        "The service request is processed successfully.",
				CallbackMetadata: &payment.CallbackMetadata{
					Item: []payment.MetadataItem{
						{Name: "Amount", Value: req.Amount},
						{Name: "MpesaReceiptNumber", Value: receipt},
						{Name: "TransactionDate", Value: json.Number(now.Format("20060102150405"))},
						{Name: "PhoneNumber", Value: numberish(req.Phone)},
					},
				},
			},
		},
	})
}

// numberish keeps all-digit phone values numeric in the JSON, matching
// what the gateway sends.
func numberish(s string) any {
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	if s == "" {
		return s
	}
	return json.Number(s)
}
