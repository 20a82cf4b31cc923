// internal/models/client.go
package models

import "strings"

// ClientProfile is the customer record scraped from the employee's open page.
// It is built once per generation request and treated as read-only afterwards.
type ClientProfile struct {
	FullName              string      `json:"fullName"`
	FirstName             string      `json:"firstName"`
	Patronymic            string      `json:"patronymic"`
	Category              string      `json:"category"`
	RemainingCreditMonths int         `json:"remainingCreditMonths"`
	Operations            []Operation `json:"operations"`
}

// Operation is a single purchase from the client's recent history.
// MCC is nil when the page row carries no merchant category code.
type Operation struct {
	MCC      *int   `json:"mcc"`
	Text     string `json:"text,omitempty"`
	Category string `json:"category,omitempty"`
}

// NewClientProfile normalizes raw page values into a profile.
func NewClientProfile(fullName, category string, remainingCreditMonths int, operations []Operation) ClientProfile {
	fullName = strings.Join(strings.Fields(fullName), " ")
	firstName, patronymic := SplitFullName(fullName)

	if remainingCreditMonths < 0 {
		remainingCreditMonths = 0
	}

	ops := make([]Operation, len(operations))
	copy(ops, operations)

	return ClientProfile{
		FullName:              fullName,
		FirstName:             firstName,
		Patronymic:            patronymic,
		Category:              strings.TrimSpace(category),
		RemainingCreditMonths: remainingCreditMonths,
		Operations:            ops,
	}
}

// NormalizeProfile re-derives name parts from FullName when present and clamps
// the month count, so supplied profiles obey the same rules as extracted ones.
func NormalizeProfile(in ClientProfile) ClientProfile {
	if strings.TrimSpace(in.FullName) != "" {
		return NewClientProfile(in.FullName, in.Category, in.RemainingCreditMonths, in.Operations)
	}
	out := NewClientProfile("", in.Category, in.RemainingCreditMonths, in.Operations)
	out.FirstName = strings.TrimSpace(in.FirstName)
	out.Patronymic = strings.TrimSpace(in.Patronymic)
	return out
}

// SplitFullName takes "Фамилия Имя Отчество" and returns first name and patronymic.
func SplitFullName(fullName string) (firstName, patronymic string) {
	parts := strings.Fields(fullName)
	if len(parts) > 1 {
		firstName = parts[1]
	}
	if len(parts) > 2 {
		patronymic = parts[2]
	}
	return firstName, patronymic
}

// IntPtr is a small helper for optional integer fields.
func IntPtr(v int) *int {
	return &v
}
