package fee

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/importing"
	"github.com/trezcool/schoolhub/core/student"
)

var (
	academicYearRegex = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

	columns  = []string{"studentId", "feeType", "amount", "dueDate", "academicYear", "month", "term", "description"}
	required = []string{"studentId", "feeType", "amount", "dueDate", "academicYear"}

	examples = [][]string{
		{"STU001", "tuition", "5000", "2024-04-30", "2024-2025", "april", "", "April tuition"},
		{"STU002", "transport", "750.50", "04/30/2024", "2024-2025", "", "Term 1", ""},
		// rejected: unknown fee type
		{"STU001", "uniform", "300", "2024-04-30", "2024-2025", "", "", ""},
	}
)

// parseAcademicYear accepts "YYYY-YYYY" spanning two consecutive years.
func parseAcademicYear(r *importing.RowReader) string {
	v := r.String("academicYear")
	if v == "" || r.Failed() {
		return v
	}
	m := academicYearRegex.FindStringSubmatch(v)
	if m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end == start+1 {
			return v
		}
	}
	r.Fail("academicYear", "Invalid academicYear '%s'. Expected YYYY-YYYY with consecutive years", v)
	return ""
}

// normalizeTerm folds case and inner spacing: "Term  1" and "term 1" name the same term.
func normalizeTerm(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}

func parse(r *importing.RowReader) Fee {
	return Fee{
		StudentID:    r.String("studentId"),
		FeeType:      r.Enum("feeType", FeeTypes...),
		Amount:       r.Decimal("amount"),
		DueDate:      r.Date("dueDate"),
		AcademicYear: parseAcademicYear(r),
		Month:        r.Enum("month", Months...),
		Term:         normalizeTerm(r.String("term")),
		Description:  r.Optional("description"),
	}
}

func Descriptor() importing.Descriptor[Fee] {
	return importing.Descriptor[Fee]{
		Kind:     Collection,
		Columns:  columns,
		Required: required,
		Parse:    parse,
		Reference: &importing.Reference[Fee]{
			Field:        "studentId",
			Label:        "Student",
			Collection:   student.Collection,
			LookupFields: []string{"studentId", "rollNumber"},
			Get:          func(f *Fee) string { return f.StudentID },
			Set:          func(f *Fee, id string) { f.StudentID = id },
		},
		Keys: []importing.UniqueKey[Fee]{{
			Key: func(f Fee) importing.Key {
				return importing.NewKey(f.StudentID, f.FeeType, f.AcademicYear, f.Month, f.Term)
			},
			Filter: func(f Fee) core.Filter {
				return core.Where(
					core.Eq{Field: "studentId", Value: f.StudentID},
					core.Eq{Field: "feeType", Value: f.FeeType},
					core.Eq{Field: "academicYear", Value: f.AcademicYear},
					core.Eq{Field: "month", Value: f.Month},
					core.Eq{Field: "term", Value: f.Term},
				)
			},
			Message: duplicateMessage,
		}},
		Finalize: func(f *Fee, meta importing.Meta) {
			f.Status = StatusPending
			f.CreatedBy = meta.Actor
			f.CreatedAt = meta.Now
			f.UpdatedAt = meta.Now
		},
		Examples: examples,
	}
}

func duplicateMessage(f Fee) string {
	msg := "Fee " + f.FeeType + " for " + f.AcademicYear
	if f.Month != "" {
		msg += " (" + f.Month + ")"
	}
	if f.Term != "" {
		msg += " (" + f.Term + ")"
	}
	return msg + " already exists for this student"
}

func NewImporter(store core.DocumentStore, validate *validator.Validate) importing.Importer {
	return importing.NewPipeline(Descriptor(), store, validate)
}
