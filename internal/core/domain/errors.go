package domain

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrPaymentDeclined  = errors.New("payment declined")
	ErrNoSession        = errors.New("session id is required")

	ErrInvalidCheckoutDetails = errors.New("invalid checkout details")
	ErrCheckoutInProgress     = errors.New("checkout already in progress")
)
