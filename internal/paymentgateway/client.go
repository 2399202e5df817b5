// Package paymentgateway реализует HTTP-клиент платежного шлюза:
// создание чекаут-ордеров, запрос статуса платежа и проверку
// подписи вебхуков.
package paymentgateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const apiVersion = "2023-08-01"

type Client struct {
	appID         string
	secretKey     string
	apiURL        string
	webhookSecret string
	httpClient    *http.Client
}

// NewClient создаёт новый клиент платежного шлюза.
func NewClient(appID, secretKey, apiURL, webhookSecret string) *Client {
	return &Client{
		appID:         appID,
		secretKey:     secretKey,
		apiURL:        apiURL,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-client-id", c.appID)
	req.Header.Set("x-client-secret", c.secretKey)
	req.Header.Set("x-api-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateCheckoutOrder отправляет запрос на создание чекаут-сессии
// для ранее сгенерированного идентификатора ордера.
func (c *Client) CreateCheckoutOrder(ctx context.Context, reqParams CreateOrderRequest) (*CreateOrderResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/orders", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var orderResp CreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&orderResp); err != nil {
		return nil, err
	}
	return &orderResp, nil
}

// LookupPaymentStatus запрашивает у шлюза платежи по ордеру и возвращает
// статус последней попытки. Пустой список попыток — не ошибка, статус
// возвращается пустой строкой.
func (c *Client) LookupPaymentStatus(ctx context.Context, orderID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/orders/"+orderID+"/payments", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var payments []PaymentInfo
	if err := json.NewDecoder(resp.Body).Decode(&payments); err != nil {
		return "", err
	}
	if len(payments) == 0 {
		return "", nil
	}
	return payments[0].PaymentStatus, nil
}

// VerifyWebhookSignature проверяет подпись вебхука: HMAC-SHA256 в base64
// от конкатенации временной метки и сырого тела запроса. Пустой секрет
// отключает проверку.
func (c *Client) VerifyWebhookSignature(timestamp string, body []byte, signature string) bool {
	if c.webhookSecret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
