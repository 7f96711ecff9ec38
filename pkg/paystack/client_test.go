package paystack

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/Davidayo16/ArtisanPro-server/pkg/config"
)

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(
		config.PaystackConfig{SecretKey: "sk_test_123", BaseURL: "http://paystack.test/"},
		WithHTTPClient(&http.Client{Transport: rt}),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestInitializeTransaction(t *testing.T) {
	var capturedURL, auth string
	var payload map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		auth = req.Header.Get("Authorization")
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"PAY-1"}}`), nil
	})

	got, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email:     "customer@example.com",
		Amount:    525000,
		Reference: "PAY-1",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if capturedURL != "http://paystack.test/transaction/initialize" {
		t.Fatalf("unexpected url %q", capturedURL)
	}
	if auth != "Bearer sk_test_123" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if payload["amount"] != float64(525000) || payload["reference"] != "PAY-1" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if got.AuthorizationURL != "https://checkout.paystack.com/abc" {
		t.Fatalf("unexpected authorization %+v", got)
	}
}

func TestVerifyTransaction(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/transaction/verify/PAY-1" {
			t.Fatalf("unexpected path %q", req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"status":true,"data":{"id":9,"reference":"PAY-1","status":"success","amount":525000,"channel":"card","paid_at":"2026-06-01T09:00:00Z"}}`), nil
	})
	tx, err := client.VerifyTransaction(context.Background(), "PAY-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tx.Status != "success" || tx.Amount != 525000 || tx.PaidAt == nil {
		t.Fatalf("unexpected transaction %+v", tx)
	}
}

func TestVerifyTransfer(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet || req.URL.Path != "/transfer/verify/PAYOUT-1" {
			t.Fatalf("unexpected request %s %q", req.Method, req.URL.Path)
		}
		return jsonResponse(http.StatusOK, `{"status":true,"data":{"transfer_code":"TRF_1","reference":"PAYOUT-1","status":"reversed","amount":500000}}`), nil
	})
	transfer, err := client.VerifyTransfer(context.Background(), "PAYOUT-1")
	if err != nil {
		t.Fatalf("verify transfer: %v", err)
	}
	if transfer.TransferCode != "TRF_1" || transfer.Status != "reversed" {
		t.Fatalf("unexpected transfer %+v", transfer)
	}
	if _, err := client.VerifyTransfer(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank reference")
	}
}

func TestAPIErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{name: "http error", status: http.StatusBadRequest, body: `{"status":false,"message":"Invalid key"}`, msg: "Invalid key"},
		{name: "envelope false", status: http.StatusOK, body: `{"status":false,"message":"Duplicate reference"}`, msg: "Duplicate reference"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(*http.Request) (*http.Response, error) {
				return jsonResponse(tc.status, tc.body), nil
			})
			_, err := client.InitiateTransfer(context.Background(), TransferRequest{Amount: 100, Recipient: "RCP_1", Reference: "PAYOUT-1"})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Message != tc.msg {
				t.Fatalf("unexpected message %q", apiErr.Message)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	client := newTestClient(t, nil)
	body := []byte(`{"event":"charge.success"}`)
	good := hex.EncodeToString(Sign("sk_test_123", body))

	if !client.VerifySignature(good, body) {
		t.Fatal("expected signature to verify")
	}
	if client.VerifySignature(good, []byte(`{"event":"charge.failed"}`)) {
		t.Fatal("tampered body must not verify")
	}
	if client.VerifySignature("zz", body) || client.VerifySignature("", body) {
		t.Fatal("malformed signatures must not verify")
	}
}

func TestNewClientRequiresSecret(t *testing.T) {
	if _, err := NewClient(config.PaystackConfig{}); err == nil {
		t.Fatal("expected error without secret key")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
