package sales

import "strings"

// PaymentPolicy decides the initial payment status of a sale based on
// its payment method. Instant-settlement methods (cash-like) confirm
// immediately; everything else starts pending.
type PaymentPolicy struct {
	instant map[string]bool
}

// NewPaymentPolicy builds a policy from the configured instant-settlement
// methods. An empty list falls back to cash only.
func NewPaymentPolicy(instantMethods []string) *PaymentPolicy {
	if len(instantMethods) == 0 {
		instantMethods = []string{"cash"}
	}
	instant := make(map[string]bool, len(instantMethods))
	for _, m := range instantMethods {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			instant[m] = true
		}
	}
	return &PaymentPolicy{instant: instant}
}

// StatusFor returns the initial status for a payment method.
func (p *PaymentPolicy) StatusFor(method string) PaymentStatus {
	if p.instant[strings.ToLower(strings.TrimSpace(method))] {
		return PaymentConfirmed
	}
	return PaymentPending
}
