package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"funnel-engine/internal/config"
	"funnel-engine/internal/model"
	"io"
	"net/http"
	"net/url"
	"time"
)

type PaypalClient interface {
	PaymentProcessor
	VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error
}

type paypalClientImpl struct {
	httpClient         *http.Client
	baseApiURL         string
	paypalClientID     string
	paypalClientSecret string
	webhookID          string
}

type PaypalCreateOrderResult struct {
	ID            string               `json:"id"`
	Links         []model.PaypalLink   `json:"links"`
	Status        string               `json:"status"`
	PurchaseUnits []model.PurchaseUnit `json:"purchase_units"`
}

type paypalErrorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

func NewPaypalClient(paypalCfg *config.Paypal) PaypalClient {
	return &paypalClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:         paypalCfg.BaseApiURL,
		paypalClientID:     paypalCfg.ClientID,
		paypalClientSecret: paypalCfg.ClientSecret,
		webhookID:          paypalCfg.WebhookID,
	}
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	auth := base64.StdEncoding.EncodeToString(
		[]byte(c.paypalClientID + ":" + c.paypalClientSecret),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/v1/oauth2/token",
		bytes.NewBufferString("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", readProcessorError(resp)
	}

	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode access token: %w", err)
	}

	return res.AccessToken, nil
}

// do sends an authorized JSON request and decodes a 2xx response into out.
func (c *paypalClientImpl) do(ctx context.Context, method, path string, payload, out interface{}) error {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("get paypal access token: %w", err)
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readProcessorError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode paypal response: %w", err)
	}
	return nil
}

func (c *paypalClientImpl) CreateSetupCheckout(ctx context.Context, req *SetupCheckoutRequest) (*SetupCheckout, error) {
	payload := map[string]interface{}{
		"payment_source": map[string]interface{}{
			"paypal": map[string]interface{}{
				"usage_type": "MERCHANT",
				"experience_context": map[string]string{
					"return_url": req.ReturnURL,
					"cancel_url": req.CancelURL,
				},
			},
		},
	}

	var result PaypalCreateOrderResult
	if err := c.do(ctx, http.MethodPost, "/v3/vault/setup-tokens", payload, &result); err != nil {
		return nil, fmt.Errorf("create setup token: %w", err)
	}

	return &SetupCheckout{
		ID:         result.ID,
		ApproveURL: _extractApproveURL(result.Links),
	}, nil
}

func (c *paypalClientImpl) ListPaymentMethods(ctx context.Context, memberID string) ([]string, error) {
	var result struct {
		PaymentTokens []struct {
			ID string `json:"id"`
		} `json:"payment_tokens"`
	}
	path := "/v3/vault/payment-tokens?customer_id=" + url.QueryEscape(memberID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("list payment tokens: %w", err)
	}

	ids := make([]string, 0, len(result.PaymentTokens))
	for _, t := range result.PaymentTokens {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// Charge creates an order paid from a vaulted token. PayPal captures vaulted
// orders on creation, so a COMPLETED order is a settled charge.
func (c *paypalClientImpl) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": req.PlanID,
				"custom_id":    req.MemberID,
				"amount": map[string]string{
					"currency_code": req.Currency,
					"value":         req.Amount.StringFixed(2),
				},
			},
		},
		"payment_source": map[string]interface{}{
			"paypal": map[string]string{
				"vault_id": req.PaymentMethodID,
			},
		},
	}

	var result PaypalCreateOrderResult
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", payload, &result); err != nil {
		return nil, fmt.Errorf("create order with vault: %w", err)
	}

	if result.Status != "COMPLETED" {
		return nil, &ProcessorError{
			StatusCode: http.StatusPaymentRequired,
			Message:    fmt.Sprintf("order %s not completed: %s", result.ID, result.Status),
		}
	}

	paymentID := result.ID
	if len(result.PurchaseUnits) > 0 && len(result.PurchaseUnits[0].Payments.Captures) > 0 {
		paymentID = result.PurchaseUnits[0].Payments.Captures[0].ID
	}

	return &ChargeResult{
		PaymentID: paymentID,
		Status:    ChargeStatusPaid,
	}, nil
}

func (c *paypalClientImpl) VerifyWebhookSignature(ctx context.Context, headers http.Header, body []byte) error {
	payload := map[string]interface{}{
		"auth_algo":         headers.Get("PAYPAL-AUTH-ALGO"),
		"cert_url":          headers.Get("PAYPAL-CERT-URL"),
		"transmission_id":   headers.Get("PAYPAL-TRANSMISSION-ID"),
		"transmission_sig":  headers.Get("PAYPAL-TRANSMISSION-SIG"),
		"transmission_time": headers.Get("PAYPAL-TRANSMISSION-TIME"),
		"webhook_id":        c.webhookID,
		"webhook_event":     json.RawMessage(body),
	}

	var result struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", payload, &result); err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	if result.VerificationStatus != "SUCCESS" {
		return fmt.Errorf("webhook signature status %q", result.VerificationStatus)
	}
	return nil
}

func readProcessorError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)

	msg := string(b)
	var body paypalErrorBody
	if err := json.Unmarshal(b, &body); err == nil {
		switch {
		case len(body.Details) > 0 && body.Details[0].Description != "":
			msg = body.Details[0].Description
		case body.Message != "":
			msg = body.Message
		}
	}

	return &ProcessorError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("paypal error %d: %s", resp.StatusCode, msg),
	}
}

func _extractApproveURL(links []model.PaypalLink) string {
	for _, link := range links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}
