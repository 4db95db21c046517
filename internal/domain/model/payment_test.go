//go:build !integration

package model

import "testing"

func TestPaymentStatusTerminal(t *testing.T) {
	terminal := []PaymentStatus{PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	if PaymentStatusPending.Terminal() {
		t.Fatal("pending must not be terminal")
	}
	if PaymentStatus("settling").Terminal() {
		t.Fatal("unknown status must not be terminal")
	}
}

func TestNewPaymentValidation(t *testing.T) {
	if _, err := NewPayment("p1", "u1", "TX1", PaymentTypeCredits, 0, "INR"); err == nil {
		t.Fatal("zero amount accepted")
	}
	if _, err := NewPayment("p1", "u1", "TX1", PaymentType("donation"), 100, "INR"); err == nil {
		t.Fatal("unknown type accepted")
	}
	p, err := NewPayment("p1", "u1", "TX1", PaymentTypeCredits, 100, "INR")
	if err != nil {
		t.Fatalf("NewPayment: %v", err)
	}
	if p.Status != PaymentStatusPending {
		t.Fatalf("new payment must start pending, got %s", p.Status)
	}
}
