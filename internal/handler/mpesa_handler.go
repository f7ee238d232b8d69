package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"pesabridge/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MpesaHandler struct {
	provider payment.Provider
}

func NewMpesaHandler(provider payment.Provider) *MpesaHandler {
	return &MpesaHandler{provider: provider}
}

// payRequest deliberately leaves phone and amount loosely typed: clients
// send both as strings and as JSON numbers, and amount is forwarded to the
// gateway without range validation.
type payRequest struct {
	Phone  any         `json:"phone"`
	Amount json.Number `json:"amount"`
	Name   string      `json:"name"`
}

func phoneString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// Pay initiates an STK push to the customer's phone.
func (h *MpesaHandler) Pay(c *gin.Context) {
	var req payRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "phone and amount are required"})
		return
	}
	phone := phoneString(req.Phone)
	if phone == "" || req.Amount == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "phone and amount are required"})
		return
	}
	ref := uuid.New().String()
	log.Printf("[MPESA] pay ref=%s phone=%s amount=%s", ref, payment.NormalizePhone(phone), req.Amount)
	resp, err := h.provider.InitiatePayment(c.Request.Context(), payment.STKRequest{
		Phone:  phone,
		Amount: req.Amount,
		Name:   req.Name,
	})
	if err != nil {
		log.Printf("[MPESA] pay ref=%s failed: %v", ref, err)
		h.renderPaymentError(c, err)
		return
	}
	msg := resp.CustomerMessage
	if msg == "" {
		msg = "STK push sent. Check your phone to complete the payment."
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"message":           msg,
		"checkoutRequestId": resp.CheckoutRequestID,
	})
}

// Token exposes a masked view of the current access token for smoke
// testing credentials. The full token never leaves the process.
func (h *MpesaHandler) Token(c *gin.Context) {
	token, err := h.provider.Token(c.Request.Context())
	if err != nil {
		log.Printf("[TOKEN] unavailable: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "token unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "token acquired",
		"token":   payment.MaskToken(token),
	})
}

type queryRequest struct {
	CheckoutRequestID string `json:"checkoutRequestId"`
}

// QueryStatus asks the gateway for the outcome of an earlier STK push.
func (h *MpesaHandler) QueryStatus(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CheckoutRequestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "checkoutRequestId is required"})
		return
	}
	resp, err := h.provider.QueryStatus(c.Request.Context(), req.CheckoutRequestID)
	if err != nil {
		log.Printf("[MPESA] stkquery %s failed: %v", req.CheckoutRequestID, err)
		h.renderPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": resp.ResultDesc, "result": resp})
}

// renderPaymentError maps provider failures onto the API's status codes:
// missing credentials are an operator problem, a logical rejection is the
// caller's problem, everything else is the gateway's.
func (h *MpesaHandler) renderPaymentError(c *gin.Context, err error) {
	var rejected *payment.RejectedError
	var gateway *payment.GatewayError
	switch {
	case errors.Is(err, payment.ErrNoCredentials):
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "payment service not configured"})
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "payment request rejected", "details": rejected.Body})
	case errors.As(err, &gateway):
		details := gateway.Body
		if details == "" && gateway.Err != nil {
			details = gateway.Err.Error()
		}
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "payment gateway error", "details": details})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "payment gateway error", "details": err.Error()})
	}
}
