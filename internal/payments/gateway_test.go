package payments

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/Davidayo16/ArtisanPro-server/pkg/config"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	"github.com/Davidayo16/ArtisanPro-server/pkg/paystack"
)

type stubPaystack struct {
	initReq     paystack.InitializeRequest
	transaction *paystack.Transaction
	transferReq paystack.TransferRequest
	transfer    *paystack.Transfer
	verifiedRef string
}

func (s *stubPaystack) InitializeTransaction(_ context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error) {
	s.initReq = req
	return &paystack.Authorization{AuthorizationURL: "https://checkout.paystack.com/x", AccessCode: "x"}, nil
}

func (s *stubPaystack) VerifyTransaction(context.Context, string) (*paystack.Transaction, error) {
	return s.transaction, nil
}

func (s *stubPaystack) InitiateTransfer(_ context.Context, req paystack.TransferRequest) (*paystack.Transfer, error) {
	s.transferReq = req
	return s.transfer, nil
}

func (s *stubPaystack) VerifyTransfer(_ context.Context, reference string) (*paystack.Transfer, error) {
	s.verifiedRef = reference
	return s.transfer, nil
}

func (s *stubPaystack) VerifySignature(string, []byte) bool { return true }

func TestPaystackGatewayConvertsToKobo(t *testing.T) {
	api := &stubPaystack{transfer: &paystack.Transfer{TransferCode: "TRF_1", Status: "success"}}
	gw, err := NewPaystackGateway(api)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	if _, err := gw.InitializeCharge(context.Background(), ChargeRequest{Reference: "PAY-1", Amount: 5250}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if api.initReq.Amount != 525000 {
		t.Fatalf("expected 525000 kobo, got %d", api.initReq.Amount)
	}

	res, err := gw.Transfer(context.Background(), TransferRequest{Reference: "PAYOUT-1", Recipient: "RCP_1", Amount: 5000})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if api.transferReq.Amount != 500000 {
		t.Fatalf("expected 500000 kobo, got %d", api.transferReq.Amount)
	}
	if res.Status != enums.TransactionStatusSuccessful || res.GatewayReference != "TRF_1" {
		t.Fatalf("unexpected transfer result %+v", res)
	}
}

func TestPaystackGatewayMapsChargeStatus(t *testing.T) {
	cases := []struct {
		status string
		want   enums.ChargeStatus
	}{
		{status: "success", want: enums.ChargeStatusSuccessful},
		{status: "failed", want: enums.ChargeStatusFailed},
		{status: "abandoned", want: enums.ChargeStatusFailed},
		{status: "ongoing", want: enums.ChargeStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			api := &stubPaystack{transaction: &paystack.Transaction{Reference: "PAY-1", Status: tc.status, Amount: 525050}}
			gw, _ := NewPaystackGateway(api)
			out, err := gw.VerifyCharge(context.Background(), "PAY-1")
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if out.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, out.Status)
			}
			if out.Amount != 5251 {
				t.Fatalf("expected amount rounded to 5251, got %d", out.Amount)
			}
			if tc.want == enums.ChargeStatusFailed && out.FailureReason == "" {
				t.Fatal("failed charges carry a reason")
			}
		})
	}
}

func TestTransferStatusMapping(t *testing.T) {
	for status, want := range map[string]enums.TransactionStatus{
		"success":  enums.TransactionStatusSuccessful,
		"reversed": enums.TransactionStatusFailed,
		"otp":      enums.TransactionStatusPending,
		"pending":  enums.TransactionStatusPending,
	} {
		gw, _ := NewPaystackGateway(&stubPaystack{transfer: &paystack.Transfer{Status: status}})
		res, err := gw.Transfer(context.Background(), TransferRequest{Amount: 1})
		if err != nil {
			t.Fatalf("transfer: %v", err)
		}
		if res.Status != want {
			t.Fatalf("%s: expected %s, got %s", status, want, res.Status)
		}
	}
}

func TestPaystackGatewayVerifyTransfer(t *testing.T) {
	api := &stubPaystack{transfer: &paystack.Transfer{TransferCode: "TRF_2", Status: "otp"}}
	gw, _ := NewPaystackGateway(api)
	res, err := gw.VerifyTransfer(context.Background(), "PAYOUT-1")
	if err != nil {
		t.Fatalf("verify transfer: %v", err)
	}
	if api.verifiedRef != "PAYOUT-1" {
		t.Fatalf("unexpected reference %q", api.verifiedRef)
	}
	if res.Status != enums.TransactionStatusPending || res.GatewayReference != "TRF_2" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestParseTransferWebhooks(t *testing.T) {
	client, err := paystack.NewClient(config.PaystackConfig{SecretKey: testSecret})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	gw, _ := NewPaystackGateway(client)
	cases := []struct {
		event  string
		status string
		want   enums.TransactionStatus
	}{
		{event: "transfer.success", status: "success", want: enums.TransactionStatusSuccessful},
		{event: "transfer.failed", status: "failed", want: enums.TransactionStatusFailed},
		{event: "transfer.reversed", status: "reversed", want: enums.TransactionStatusFailed},
		{event: "transfer.reversed", status: "success", want: enums.TransactionStatusFailed},
	}
	for _, tc := range cases {
		body := []byte(`{"event":"` + tc.event + `","data":{"transfer_code":"TRF_1","reference":"PAYOUT-1","status":"` + tc.status + `","amount":500000}}`)
		sig := hex.EncodeToString(paystack.Sign(testSecret, body))
		got, err := gw.ParseWebhook(sig, body)
		if err != nil {
			t.Fatalf("%s: parse: %v", tc.event, err)
		}
		if got.Outcome != nil || got.Transfer == nil {
			t.Fatalf("%s: expected a transfer update, got %+v", tc.event, got)
		}
		if got.Transfer.Reference != "PAYOUT-1" || got.Transfer.Result.Status != tc.want {
			t.Fatalf("%s/%s: unexpected update %+v", tc.event, tc.status, got.Transfer)
		}
		if tc.want == enums.TransactionStatusFailed && got.Transfer.Result.FailureReason == "" {
			t.Fatalf("%s: failed transfers carry a reason", tc.event)
		}
		if got.ID != tc.event+":PAYOUT-1" {
			t.Fatalf("unexpected event id %q", got.ID)
		}
	}
}
