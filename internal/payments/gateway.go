package payments

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	"github.com/Davidayo16/ArtisanPro-server/pkg/paystack"
)

// Gateway is the payment provider contract. Amounts are whole currency units.
type Gateway interface {
	InitializeCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error)
	VerifyCharge(ctx context.Context, reference string) (*Outcome, error)
	ParseWebhook(signature string, body []byte) (*WebhookEvent, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	// VerifyTransfer looks up a transfer by the reference it was sent with.
	VerifyTransfer(ctx context.Context, reference string) (*TransferResult, error)
}

type ChargeRequest struct {
	Reference   string
	Email       string
	Amount      int64
	Currency    string
	CallbackURL string
	Metadata    map[string]any
}

type ChargeSession struct {
	AuthorizationURL string
	AccessCode       string
}

// Outcome is what the gateway says about a charge.
type Outcome struct {
	Reference     string
	Status        enums.ChargeStatus
	Amount        int64
	Channel       string
	FailureReason string
	PaidAt        *time.Time
	Raw           json.RawMessage
}

// WebhookEvent is a verified, decoded gateway callback. At most one of
// Outcome and Transfer is set; both are nil for events nobody handles.
type WebhookEvent struct {
	ID       string
	Type     string
	Outcome  *Outcome
	Transfer *TransferUpdate
}

// TransferUpdate is a transfer webhook keyed by our payout reference.
type TransferUpdate struct {
	Reference string
	Result    TransferResult
}

type TransferRequest struct {
	Reference string
	Recipient string
	Amount    int64
	Currency  string
	Reason    string
}

type TransferResult struct {
	GatewayReference string
	Status           enums.TransactionStatus
	FailureReason    string
}

var ErrInvalidSignature = errors.New("invalid webhook signature")

const (
	eventChargeSuccess    = "charge.success"
	eventChargeFailed     = "charge.failed"
	eventTransferSuccess  = "transfer.success"
	eventTransferFailed   = "transfer.failed"
	eventTransferReversed = "transfer.reversed"
)

var koboPerUnit = decimal.NewFromInt(100)

type paystackAPI interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
	InitiateTransfer(ctx context.Context, req paystack.TransferRequest) (*paystack.Transfer, error)
	VerifyTransfer(ctx context.Context, reference string) (*paystack.Transfer, error)
	VerifySignature(signature string, body []byte) bool
}

// PaystackGateway adapts the Paystack client to Gateway, converting to and from kobo.
type PaystackGateway struct {
	api paystackAPI
}

func NewPaystackGateway(api paystackAPI) (*PaystackGateway, error) {
	if api == nil {
		return nil, errors.New("paystack client required")
	}
	return &PaystackGateway{api: api}, nil
}

func (g *PaystackGateway) InitializeCharge(ctx context.Context, req ChargeRequest) (*ChargeSession, error) {
	auth, err := g.api.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:       req.Email,
		Amount:      toKobo(req.Amount),
		Reference:   req.Reference,
		Currency:    req.Currency,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return &ChargeSession{AuthorizationURL: auth.AuthorizationURL, AccessCode: auth.AccessCode}, nil
}

func (g *PaystackGateway) VerifyCharge(ctx context.Context, reference string) (*Outcome, error) {
	tx, err := g.api.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}
	raw, _ := json.Marshal(tx)
	return outcomeFromPaystack(tx, raw), nil
}

func (g *PaystackGateway) ParseWebhook(signature string, body []byte) (*WebhookEvent, error) {
	if !g.api.VerifySignature(signature, body) {
		return nil, ErrInvalidSignature
	}
	var event paystack.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	out := &WebhookEvent{Type: event.Event}
	switch event.Event {
	case eventChargeSuccess, eventChargeFailed:
		var tx paystack.Transaction
		if err := json.Unmarshal(event.Data, &tx); err != nil {
			return nil, err
		}
		out.Outcome = outcomeFromPaystack(&tx, event.Data)
		if event.Event == eventChargeFailed {
			out.Outcome.Status = enums.ChargeStatusFailed
		}
		out.ID = event.Event + ":" + tx.Reference
	case eventTransferSuccess, eventTransferFailed, eventTransferReversed:
		var transfer paystack.Transfer
		if err := json.Unmarshal(event.Data, &transfer); err != nil {
			return nil, err
		}
		result := transferResult(&transfer)
		if event.Event != eventTransferSuccess && result.Status != enums.TransactionStatusFailed {
			result.Status = enums.TransactionStatusFailed
			result.FailureReason = "transfer " + strings.TrimPrefix(event.Event, "transfer.")
		}
		out.Transfer = &TransferUpdate{Reference: transfer.Reference, Result: *result}
		out.ID = event.Event + ":" + transfer.Reference
	}
	return out, nil
}

func (g *PaystackGateway) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	transfer, err := g.api.InitiateTransfer(ctx, paystack.TransferRequest{
		Amount:    toKobo(req.Amount),
		Recipient: req.Recipient,
		Reference: req.Reference,
		Reason:    req.Reason,
		Currency:  req.Currency,
	})
	if err != nil {
		return nil, err
	}
	return transferResult(transfer), nil
}

func (g *PaystackGateway) VerifyTransfer(ctx context.Context, reference string) (*TransferResult, error) {
	transfer, err := g.api.VerifyTransfer(ctx, reference)
	if err != nil {
		return nil, err
	}
	return transferResult(transfer), nil
}

// transferResult maps a Paystack transfer status. Anything not yet final,
// including otp and pending, stays pending.
func transferResult(transfer *paystack.Transfer) *TransferResult {
	result := &TransferResult{GatewayReference: transfer.TransferCode}
	switch strings.ToLower(transfer.Status) {
	case "success":
		result.Status = enums.TransactionStatusSuccessful
	case "failed", "reversed", "abandoned":
		result.Status = enums.TransactionStatusFailed
		result.FailureReason = "transfer " + strings.ToLower(transfer.Status)
	default:
		result.Status = enums.TransactionStatusPending
	}
	return result
}

func outcomeFromPaystack(tx *paystack.Transaction, raw json.RawMessage) *Outcome {
	out := &Outcome{
		Reference: tx.Reference,
		Amount:    fromKobo(tx.Amount),
		Channel:   tx.Channel,
		PaidAt:    tx.PaidAt,
		Raw:       raw,
	}
	switch strings.ToLower(tx.Status) {
	case "success":
		out.Status = enums.ChargeStatusSuccessful
	case "failed", "abandoned", "reversed":
		out.Status = enums.ChargeStatusFailed
		out.FailureReason = tx.GatewayResponse
		if out.FailureReason == "" {
			out.FailureReason = "charge " + strings.ToLower(tx.Status)
		}
	default:
		out.Status = enums.ChargeStatusPending
	}
	return out
}

func toKobo(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(koboPerUnit).IntPart()
}

func fromKobo(kobo int64) int64 {
	return decimal.NewFromInt(kobo).Div(koboPerUnit).Round(0).IntPart()
}
