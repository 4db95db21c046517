// File: internal/infra/adapters/payment/phonepe_gateway.go
package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/model"
	"ai-creative-suite/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*PhonePeGateway)(nil)

// PhonePeGateway implements adapter.PaymentGateway against the PhonePe-style
// REST API. Requests and callbacks carry an X-VERIFY header of the form
// "<hex sha256(body + saltKey)>###<saltIndex>".
type PhonePeGateway struct {
	baseURL    string
	merchantID string
	saltKey    string
	saltIndex  string
	redirect   string
	client     *http.Client
}

func NewPhonePeGateway(baseURL, merchantID, saltKey, saltIndex, redirectURL string) (*PhonePeGateway, error) {
	if merchantID == "" || saltKey == "" {
		return nil, errors.New("merchant id or salt key empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	return &PhonePeGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		merchantID: merchantID,
		saltKey:    saltKey,
		saltIndex:  saltIndex,
		redirect:   redirectURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *PhonePeGateway) Name() string { return "phonepe" }

// sign computes the X-VERIFY value for a payload.
func (g *PhonePeGateway) sign(body []byte) string {
	sum := sha256.Sum256(append(body, []byte(g.saltKey)...))
	return hex.EncodeToString(sum[:]) + "###" + g.saltIndex
}

func (g *PhonePeGateway) CreateIntent(ctx context.Context, merchantTxID string, amount int64, description string, meta map[string]interface{}) (string, error) {
	payload := map[string]interface{}{
		"merchantId":            g.merchantID,
		"merchantTransactionId": merchantTxID,
		"amount":                amount,
		"redirectUrl":           g.redirect,
		"redirectMode":          "POST",
		"message":               description,
	}
	if meta != nil {
		payload["metadata"] = meta
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/pg/v1/pay", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", g.sign(b))

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			InstrumentResponse struct {
				RedirectInfo struct {
					URL string `json:"url"`
				} `json:"redirectInfo"`
			} `json:"instrumentResponse"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode pay response: %v", domain.ErrProviderFailed, err)
	}
	if !out.Success || out.Data.InstrumentResponse.RedirectInfo.URL == "" {
		return "", fmt.Errorf("%w: pay request rejected", domain.ErrProviderFailed)
	}
	return out.Data.InstrumentResponse.RedirectInfo.URL, nil
}

// callbackBody is the JSON the provider posts to our webhook.
type callbackBody struct {
	MerchantTransactionID string `json:"merchantTransactionId"`
	Code                  string `json:"code"`
	Amount                int64  `json:"amount"`
	ProviderReferenceID   string `json:"providerReferenceId"`
}

func (g *PhonePeGateway) DecodeCallback(rawBody []byte, signatureHeader string) (*model.GatewayEvent, error) {
	expected := g.sign(rawBody)
	// Constant-time compare; a wrong salt index is just a wrong signature.
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signatureHeader)) != 1 {
		return nil, domain.ErrInvalidSignature
	}

	var cb callbackBody
	if err := json.Unmarshal(rawBody, &cb); err != nil {
		return nil, fmt.Errorf("%w: malformed callback body", domain.ErrInvalidArgument)
	}
	if cb.MerchantTransactionID == "" {
		return nil, fmt.Errorf("%w: callback without transaction id", domain.ErrInvalidArgument)
	}
	return &model.GatewayEvent{
		MerchantTxID: cb.MerchantTransactionID,
		State:        stateFromCode(cb.Code),
		Amount:       cb.Amount,
		ProviderRef:  cb.ProviderReferenceID,
		Extra: map[string]interface{}{
			"code":         cb.Code,
			"provider_ref": cb.ProviderReferenceID,
		},
	}, nil
}

func (g *PhonePeGateway) CheckStatus(ctx context.Context, merchantTxID string) (*model.GatewayEvent, error) {
	path := fmt.Sprintf("/pg/v1/status/%s/%s", g.merchantID, merchantTxID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	// Status endpoint signs path + salt key instead of a body.
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", g.sign([]byte(path)))
	req.Header.Set("X-MERCHANT-ID", g.merchantID)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Data    struct {
			MerchantTransactionID string `json:"merchantTransactionId"`
			Amount                int64  `json:"amount"`
			TransactionID         string `json:"transactionId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode status response: %v", domain.ErrProviderFailed, err)
	}
	return &model.GatewayEvent{
		MerchantTxID: merchantTxID,
		State:        stateFromCode(out.Code),
		Amount:       out.Data.Amount,
		ProviderRef:  out.Data.TransactionID,
		Extra: map[string]interface{}{
			"code":         out.Code,
			"provider_ref": out.Data.TransactionID,
		},
	}, nil
}

// stateFromCode maps provider result codes onto the payment state machine.
// Anything unrecognized (including PAYMENT_PENDING) stays non-terminal so the
// settle path leaves the payment untouched.
func stateFromCode(code string) model.PaymentStatus {
	switch code {
	case "PAYMENT_SUCCESS":
		return model.PaymentStatusCompleted
	case "PAYMENT_ERROR", "PAYMENT_DECLINED", "TIMED_OUT":
		return model.PaymentStatusFailed
	case "PAYMENT_CANCELLED":
		return model.PaymentStatusCancelled
	default:
		return model.PaymentStatusPending
	}
}
