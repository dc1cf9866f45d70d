package checkout

import (
	"net/mail"
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

const maxNameLength = 100

// OrderForm carries the contact fields submitted at checkout.
type OrderForm struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// FieldErrors maps a field name to its validation message so the caller
// can surface problems per field.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "invalid contact info: " + strings.Join(parts, "; ")
}

// Validate checks every field and normalizes the form in place: fields are
// trimmed and the email is lowercased. Returns FieldErrors when anything
// is invalid; the form is never partially applied.
func (f *OrderForm) Validate() error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Address = strings.TrimSpace(f.Address)
	f.Phone = strings.TrimSpace(f.Phone)

	errs := make(FieldErrors)

	if f.FullName == "" {
		errs["full_name"] = "full name is required"
	} else if len(f.FullName) > maxNameLength {
		errs["full_name"] = "full name is too long"
	}

	if f.Email == "" {
		errs["email"] = "email is required"
	} else if _, err := mail.ParseAddress(f.Email); err != nil {
		errs["email"] = "email is not valid"
	}

	if f.Address == "" {
		errs["address"] = "address is required"
	}

	if f.Phone == "" {
		errs["phone"] = "phone is required"
	} else if !phonePattern.MatchString(f.Phone) {
		errs["phone"] = "phone number must be entered in the format: '+999999999', up to 15 digits allowed"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
