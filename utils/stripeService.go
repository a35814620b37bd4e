package utils

import (
	"fmt"
	"log"

	"lse/config"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
)

// InitStripe sets the API key for the stripe-go client bindings.
func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
	if stripe.Key == "" {
		log.Println("Warning: STRIPE_SECRET_KEY not set. Paid course purchases will fail.")
	}
}

// FormatAmountCents converts a decimal price to the integer cents Stripe expects.
func FormatAmountCents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

// CreatePaymentIntent creates a PaymentIntent for a course purchase. The
// purchase id travels in the metadata so a webhook can locate the purchase
// even if the intent reference was never persisted locally.
func CreatePaymentIntent(amountCents int64, description, receiptEmail string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	if amountCents < config.AppConfig.StripeMinAmountCents {
		return nil, fmt.Errorf("amount %d below provider minimum of %d cents", amountCents, config.AppConfig.StripeMinAmountCents)
	}

	if len(description) > 300 {
		description = description[:300]
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(config.AppConfig.Currency),
		Description: stripe.String(description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if receiptEmail != "" {
		params.ReceiptEmail = stripe.String(receiptEmail)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("[STRIPE] Failed to create PaymentIntent: %v", err)
		return nil, err
	}

	return intent, nil
}

// RetrievePaymentIntent fetches the current state of an intent from Stripe.
func RetrievePaymentIntent(intentID string) (*stripe.PaymentIntent, error) {
	intent, err := paymentintent.Get(intentID, nil)
	if err != nil {
		log.Printf("[STRIPE] Failed to retrieve PaymentIntent %s: %v", intentID, err)
		return nil, err
	}
	return intent, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the
// configured webhook secret and returns the parsed event.
func VerifyWebhookSignature(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, config.AppConfig.StripeWebhookSecret)
}
