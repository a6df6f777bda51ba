package service

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/sahelshop/storefront/internal/domain"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{8,20}$`)

// CheckoutForm carries the shopper's details for a submission.
type CheckoutForm struct {
	CustomerName string `json:"customer_name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Email        string `json:"email"`
	Address      string `json:"address" binding:"required"`
	Remarks      string `json:"remarks"`
}

// Validate applies the order form rules and returns the customer record for
// the draft.
func (f CheckoutForm) Validate() (domain.Customer, error) {
	name := strings.TrimSpace(f.CustomerName)
	if len(name) < 2 {
		return domain.Customer{}, &apperrors.ErrValidation{Field: "customer_name", Message: "name must be at least 2 characters"}
	}
	if !phonePattern.MatchString(strings.TrimSpace(f.Phone)) {
		return domain.Customer{}, &apperrors.ErrValidation{Field: "phone", Message: "invalid phone number"}
	}
	address := strings.TrimSpace(f.Address)
	if len(address) < 5 {
		return domain.Customer{}, &apperrors.ErrValidation{Field: "address", Message: "address must be at least 5 characters"}
	}
	email := strings.TrimSpace(f.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return domain.Customer{}, &apperrors.ErrValidation{Field: "email", Message: "invalid email address"}
		}
	}

	return domain.Customer{
		Name:    name,
		Phone:   strings.TrimSpace(f.Phone),
		Email:   email,
		Address: address,
	}, nil
}
