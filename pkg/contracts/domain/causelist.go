// Package domain contains the shared domain types for the cause-list
// retrieval system. These types cross package boundaries: the scraper
// produces them, services relay them, and the transport layer serializes
// them to HTTP and WebSocket clients.
package domain

import (
	"fmt"
	"time"
)

// CaseType selects which cause list is requested from the portal.
type CaseType string

const (
	CaseTypeCivil    CaseType = "Civil"
	CaseTypeCriminal CaseType = "Criminal"
)

// Valid reports whether the case type is one the portal understands.
func (c CaseType) Valid() bool {
	return c == CaseTypeCivil || c == CaseTypeCriminal
}

// ParseCaseType converts user input into a CaseType.
func ParseCaseType(s string) (CaseType, error) {
	switch CaseType(s) {
	case CaseTypeCivil:
		return CaseTypeCivil, nil
	case CaseTypeCriminal:
		return CaseTypeCriminal, nil
	default:
		return "", fmt.Errorf("invalid case type %q: must be Civil or Criminal", s)
	}
}

// CourtSelection describes one pass through the portal's form chain.
// CourtName is empty when the caller wants every court in the complex.
type CourtSelection struct {
	State     string   `json:"state" validate:"required"`
	District  string   `json:"district" validate:"required"`
	Complex   string   `json:"complex" validate:"required"`
	CourtName string   `json:"court_name,omitempty"`
	Date      string   `json:"date" validate:"required"` // DD-MM-YYYY, portal format
	CaseType  CaseType `json:"case_type" validate:"required,oneof=Civil Criminal"`
}

// ValidateDate checks that Date is a real calendar date in DD-MM-YYYY form.
func (s CourtSelection) ValidateDate() error {
	if _, err := time.Parse("02-01-2006", s.Date); err != nil {
		return fmt.Errorf("date must be in format DD-MM-YYYY, got %q", s.Date)
	}
	return nil
}

// Record is one exported cause-list document: the CNR label read from
// the record's detail page and the path of the PDF written for it.
type Record struct {
	CNR       string    `json:"cnr"`
	Path      string    `json:"path"`
	Court     string    `json:"court,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
}
