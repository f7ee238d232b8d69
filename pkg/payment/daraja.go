package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	tokenPath    = "/oauth/v1/generate?grant_type=client_credentials"
	stkPushPath  = "/mpesa/stkpush/v1/processrequest"
	stkQueryPath = "/mpesa/stkpushquery/v1/query"

	// acceptedCode is the only ResponseCode the gateway uses for an
	// accepted request; anything else is a rejection even on HTTP 200.
	acceptedCode = "0"

	// errCodeInvalidToken is the Daraja error code for an invalid or
	// expired access token.
	errCodeInvalidToken = "404.001.03"
)

// DarajaProvider implements M-Pesa STK push against the Safaricom Daraja API.
type DarajaProvider struct {
	BaseURL          string
	ConsumerKey      string
	ConsumerSecret   string
	ShortCode        string
	Passkey          string
	CallbackURL      string
	AccountReference string

	client *http.Client
	now    func() time.Time
}

func NewDarajaProvider(baseURL, consumerKey, consumerSecret, shortCode, passkey, callbackURL, accountReference string) *DarajaProvider {
	if baseURL == "" {
		baseURL = "https://sandbox.safaricom.co.ke"
	}
	return &DarajaProvider{
		BaseURL:          baseURL,
		ConsumerKey:      consumerKey,
		ConsumerSecret:   consumerSecret,
		ShortCode:        shortCode,
		Passkey:          passkey,
		CallbackURL:      callbackURL,
		AccountReference: accountReference,
		client:           &http.Client{Timeout: 30 * time.Second},
		now:              time.Now,
	}
}

type darajaTokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// Token fetches a fresh bearer token. Tokens are never cached; every
// payment attempt pays for its own token call.
func (p *DarajaProvider) Token(ctx context.Context) (string, error) {
	if p.ConsumerKey == "" || p.ConsumerSecret == "" {
		return "", ErrNoCredentials
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+tokenPath, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.ConsumerKey, p.ConsumerSecret)
	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[TOKEN] request failed: %v", err)
		return "", &GatewayError{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[TOKEN] gateway status=%d body=%s", resp.StatusCode, body)
		return "", &GatewayError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	var out darajaTokenResp
	if err := json.Unmarshal(body, &out); err != nil || out.AccessToken == "" {
		log.Printf("[TOKEN] unusable token response status=%d", resp.StatusCode)
		return "", &GatewayError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	return out.AccessToken, nil
}

// stkPushPayload uses the gateway's exact JSON field names; they are part
// of the Daraja wire contract and must not change.
type stkPushPayload struct {
	BusinessShortCode string      `json:"BusinessShortCode"`
	Password          string      `json:"Password"`
	Timestamp         string      `json:"Timestamp"`
	TransactionType   string      `json:"TransactionType"`
	Amount            json.Number `json:"Amount"`
	PartyA            string      `json:"PartyA"`
	PartyB            string      `json:"PartyB"`
	PhoneNumber       string      `json:"PhoneNumber"`
	CallBackURL       string      `json:"CallBackURL"`
	AccountReference  string      `json:"AccountReference"`
	TransactionDesc   string      `json:"TransactionDesc"`
}

type stkQueryPayload struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

// stkPassword derives the 14-char timestamp and the request password,
// base64(shortcode + passkey + timestamp).
func (p *DarajaProvider) stkPassword(now time.Time) (password, timestamp string) {
	timestamp = now.Format("20060102150405")
	password = base64.StdEncoding.EncodeToString([]byte(p.ShortCode + p.Passkey + timestamp))
	return password, timestamp
}

func (p *DarajaProvider) stkPayload(req STKRequest, now time.Time) stkPushPayload {
	password, timestamp := p.stkPassword(now)
	phone := NormalizePhone(req.Phone)
	desc := req.Name
	if desc == "" {
		desc = "customer"
	}
	return stkPushPayload{
		BusinessShortCode: p.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount,
		PartyA:            phone,
		PartyB:            p.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       p.CallbackURL,
		AccountReference:  p.AccountReference,
		TransactionDesc:   desc,
	}
}

// InitiatePayment submits an STK push. The payload is built once; on an
// invalid-token rejection the same payload is resubmitted with a refreshed
// token, at most once.
func (p *DarajaProvider) InitiatePayment(ctx context.Context, req STKRequest) (*STKResponse, error) {
	payload := p.stkPayload(req, p.now())
	log.Printf("[MPESA] STK push shortcode=%s phone=%s amount=%s", p.ShortCode, payload.PhoneNumber, payload.Amount)
	var out STKResponse
	err := expiredTokenRetry.run(ctx, p.Token, func(token string) error {
		raw, err := p.post(ctx, stkPushPath, payload, token)
		if err != nil {
			return err
		}
		out = STKResponse{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return &GatewayError{StatusCode: http.StatusOK, Body: string(raw), Err: err}
		}
		if out.ResponseCode != acceptedCode {
			return &RejectedError{Code: out.ResponseCode, Description: out.ResponseDescription, Body: string(raw)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryStatus asks the gateway for the outcome of a previously initiated
// STK push, identified by its CheckoutRequestID.
func (p *DarajaProvider) QueryStatus(ctx context.Context, checkoutRequestID string) (*QueryResponse, error) {
	password, timestamp := p.stkPassword(p.now())
	payload := stkQueryPayload{
		BusinessShortCode: p.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		CheckoutRequestID: checkoutRequestID,
	}
	var out QueryResponse
	err := expiredTokenRetry.run(ctx, p.Token, func(token string) error {
		raw, err := p.post(ctx, stkQueryPath, payload, token)
		if err != nil {
			return err
		}
		out = QueryResponse{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return &GatewayError{StatusCode: http.StatusOK, Body: string(raw), Err: err}
		}
		if out.ResponseCode != acceptedCode {
			return &RejectedError{Code: out.ResponseCode, Description: out.ResponseDescription, Body: string(raw)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *DarajaProvider) post(ctx context.Context, path string, payload any, token string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[MPESA] POST %s failed: %v", path, err)
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	log.Printf("[MPESA] POST %s status=%d body=%s", path, resp.StatusCode, respBody)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// isExpiredTokenErr reports whether a gateway failure carries the
// invalid/expired access token signature, the only retryable class.
func isExpiredTokenErr(err error) bool {
	var ge *GatewayError
	if !errors.As(err, &ge) {
		return false
	}
	if strings.Contains(ge.Body, errCodeInvalidToken) {
		return true
	}
	return strings.Contains(strings.ToLower(ge.Body), "invalid access token")
}
