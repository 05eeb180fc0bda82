// Package payment verifies client-supplied payment references against the
// payment provider before a consultation is created. The checkout widget runs
// entirely client-side, so its callback cannot be trusted on its own.
package payment

import (
	"context"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// ErrRejected indicates the payment reference does not correspond to a
// successful payment for the consultation fee.
var ErrRejected = errors.New("payment rejected")

// Verifier checks that a payment reference is genuine and settled.
type Verifier interface {
	Verify(ctx context.Context, paymentRef string) error
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, paymentRef string) error

func (f VerifierFunc) Verify(ctx context.Context, paymentRef string) error {
	return f(ctx, paymentRef)
}

// NoopVerifier accepts every payment reference. Development only.
func NoopVerifier() Verifier {
	return VerifierFunc(func(context.Context, string) error { return nil })
}

// RazorpayVerifier fetches the payment from Razorpay and checks its status,
// amount and currency against the configured consultation fee.
type RazorpayVerifier struct {
	client   *razorpay.Client
	amount   int64 // smallest currency unit
	currency string
}

func NewRazorpayVerifier(keyID, keySecret string, amount int64, currency string) *RazorpayVerifier {
	return &RazorpayVerifier{
		client:   razorpay.NewClient(keyID, keySecret),
		amount:   amount,
		currency: currency,
	}
}

// Verify fetches the payment by id. The razorpay client has no context
// support; the surrounding request timeout still bounds the handler.
func (v *RazorpayVerifier) Verify(_ context.Context, paymentRef string) error {
	if paymentRef == "" {
		return fmt.Errorf("%w: empty payment reference", ErrRejected)
	}

	body, err := v.client.Payment.Fetch(paymentRef, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: fetch payment %s: %v", ErrRejected, paymentRef, err)
	}

	status, _ := body["status"].(string)
	if status != "authorized" && status != "captured" {
		return fmt.Errorf("%w: payment %s has status %q", ErrRejected, paymentRef, status)
	}

	amount, ok := body["amount"].(float64)
	if !ok || int64(amount) != v.amount {
		return fmt.Errorf("%w: payment %s amount %v does not match fee %d", ErrRejected, paymentRef, body["amount"], v.amount)
	}

	currency, _ := body["currency"].(string)
	if currency != v.currency {
		return fmt.Errorf("%w: payment %s currency %q does not match %q", ErrRejected, paymentRef, currency, v.currency)
	}

	return nil
}
