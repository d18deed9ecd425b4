package importing

import (
	"fmt"
	"sort"
)

// issue categories
const (
	CategoryValidation       = "validation"
	CategoryInvalidReference = "invalid_reference"
	CategoryDuplicate        = "duplicate"
)

// Issue is a rejected row, as listed in import reports.
type Issue struct {
	Row      int
	Category string
	Message  string
}

// Outcome is the report of one import. Every row lands in exactly one of its categories.
type Outcome struct {
	TotalRows                int           `json:"totalRows"`
	SuccessfulUploads        int           `json:"successfulUploads"`
	Duplicates               int           `json:"duplicates"`
	InvalidReferences        int           `json:"invalidReferences"`
	Errors                   int           `json:"errors"`
	UploadedRecords          []interface{} `json:"uploadedRecords"`
	DuplicateMessages        []string      `json:"duplicateMessages"`
	InvalidReferenceMessages []string      `json:"invalidReferenceMessages"`
	ValidationErrorMessages  []string      `json:"validationErrorMessages"`
	Warnings                 []string      `json:"warnings,omitempty"`

	issues []Issue
}

func newOutcome(totalRows int) *Outcome {
	return &Outcome{
		TotalRows:                totalRows,
		UploadedRecords:          []interface{}{},
		DuplicateMessages:        []string{},
		InvalidReferenceMessages: []string{},
		ValidationErrorMessages:  []string{},
	}
}

func rowMessage(row int, msg string) string {
	return fmt.Sprintf("Row %d: %s", row, msg)
}

func (o *Outcome) addValidationError(row int, msg string) {
	o.Errors++
	o.ValidationErrorMessages = append(o.ValidationErrorMessages, rowMessage(row, msg))
	o.issues = append(o.issues, Issue{Row: row, Category: CategoryValidation, Message: msg})
}

func (o *Outcome) addInvalidReference(row int, msg string) {
	o.InvalidReferences++
	o.InvalidReferenceMessages = append(o.InvalidReferenceMessages, rowMessage(row, msg))
	o.issues = append(o.issues, Issue{Row: row, Category: CategoryInvalidReference, Message: msg})
}

func (o *Outcome) addDuplicate(row int, msg string) {
	o.Duplicates++
	o.DuplicateMessages = append(o.DuplicateMessages, rowMessage(row, msg))
	o.issues = append(o.issues, Issue{Row: row, Category: CategoryDuplicate, Message: msg})
}

func (o *Outcome) addUploaded(record interface{}) {
	o.SuccessfulUploads++
	o.UploadedRecords = append(o.UploadedRecords, record)
}

// Issues lists every rejected row, ordered by row number.
func (o *Outcome) Issues() []Issue {
	issues := append([]Issue(nil), o.issues...)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Row < issues[j].Row })
	return issues
}

// HasIssues reports whether any row was rejected.
func (o *Outcome) HasIssues() bool {
	return len(o.issues) > 0
}
