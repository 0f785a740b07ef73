package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// A Payment is the record of a successful simulated checkout.
	Payment struct {
		SessionID string
		OrderID   string
		Amount    decimal.Decimal
		Method    string
		Date      time.Time
		Items     []LineItem
	}

	// A CheckoutDetails is the customer data submitted on checkout.
	CheckoutDetails struct {
		Name    string
		Email   string
		Address string
	}
)
