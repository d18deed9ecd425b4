package fee

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

const (
	Collection = "fees"

	StatusPending = "pending"
)

var (
	FeeTypes = []string{"tuition", "transport", "library", "sports", "examination", "admission", "other"}
	Months   = []string{
		"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
	}
)

type Fee struct {
	ID           string          `json:"id,omitempty"`
	StudentID    string          `json:"studentId"` // canonical student identifier
	FeeType      string          `json:"feeType"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"dueDate"`
	Status       string          `json:"status"`
	Description  null.String     `json:"description"`
	AcademicYear string          `json:"academicYear"`
	Month        string          `json:"month,omitempty"`
	Term         string          `json:"term,omitempty"`
	CreatedBy    string          `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
