// Package customer holds the contact details captured at checkout.
package customer

import (
	"fmt"
	"regexp"
	"strings"
)

// Info is the customer's contact information attached to an order.
type Info struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

var (
	namePattern  = regexp.MustCompile(`^[A-Za-z ]{2,50}$`)
	phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// ValidationError reports which customer field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the name and phone formats accepted at checkout: a name of
// 2-50 letters or spaces and a 10-digit mobile number starting with 6-9.
func Validate(info Info) error {
	name := strings.TrimSpace(info.Name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !namePattern.MatchString(name) {
		return &ValidationError{Field: "name", Message: "name must be 2-50 letters or spaces"}
	}

	phone := strings.TrimSpace(info.Phone)
	if phone == "" {
		return &ValidationError{Field: "phone", Message: "phone is required"}
	}
	if !phonePattern.MatchString(phone) {
		return &ValidationError{Field: "phone", Message: "phone must be a 10-digit mobile number starting with 6-9"}
	}
	return nil
}
