package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/importing"
	"github.com/trezcool/schoolhub/core/student"
)

const dayLayout = "2006-01-02"

var (
	columns  = []string{"studentId", "date", "status", "checkInTime", "checkOutTime", "notes"}
	required = []string{"studentId", "date", "status"}

	examples = [][]string{
		{"STU001", "2024-01-15", "present", "08:00", "15:00", ""},
		{"STU002", "01/15/2024", "late", "09:10", "", "Bus delay"},
		{"STU003", "2024-01-15", "absent", "", "", ""},
		// rejected: check-out before check-in
		{"STU001", "2024-01-16", "present", "15:00", "08:00", ""},
	}
)

func parse(r *importing.RowReader) Attendance {
	a := Attendance{
		StudentID: r.String("studentId"),
		Date:      r.Date("date"),
		Status:    r.Enum("status", Statuses...),
		Notes:     r.Optional("notes"),
	}
	a.CheckInTime = r.Clock("checkInTime", a.Date)
	a.CheckOutTime = r.Clock("checkOutTime", a.Date)
	sameDay(r, "checkInTime", a.CheckInTime, a.Date)
	sameDay(r, "checkOutTime", a.CheckOutTime, a.Date)
	if a.CheckInTime.Valid && a.CheckOutTime.Valid && !a.CheckOutTime.Time.After(a.CheckInTime.Time) {
		r.Fail("checkOutTime", "checkOutTime must be after checkInTime")
	}
	return a
}

func sameDay(r *importing.RowReader, field string, t null.Time, day time.Time) {
	if t.Valid && t.Time.UTC().Format(dayLayout) != day.Format(dayLayout) {
		r.Fail(field, "%s must be on %s", field, day.Format(dayLayout))
	}
}

func Descriptor() importing.Descriptor[Attendance] {
	return importing.Descriptor[Attendance]{
		Kind:     Collection,
		Columns:  columns,
		Required: required,
		Parse:    parse,
		Reference: &importing.Reference[Attendance]{
			Field:        "studentId",
			Label:        "Student",
			Collection:   student.Collection,
			LookupFields: []string{"studentId", "rollNumber"},
			Get:          func(a *Attendance) string { return a.StudentID },
			Set:          func(a *Attendance, id string) { a.StudentID = id },
		},
		Keys: []importing.UniqueKey[Attendance]{{
			Key: func(a Attendance) importing.Key {
				return importing.NewKey(a.StudentID, a.Date.Format(dayLayout))
			},
			Filter: func(a Attendance) core.Filter {
				return core.Where(
					core.Eq{Field: "studentId", Value: a.StudentID},
					core.Eq{Field: "date", Value: core.TimeValue(a.Date)},
				)
			},
			Message: func(a Attendance) string {
				return "Attendance already marked for this student on " + a.Date.Format(dayLayout)
			},
		}},
		Finalize: func(a *Attendance, meta importing.Meta) {
			a.MarkedBy = meta.Actor
			a.CreatedAt = meta.Now
			a.UpdatedAt = meta.Now
		},
		Examples: examples,
	}
}

func NewImporter(store core.DocumentStore, validate *validator.Validate) importing.Importer {
	return importing.NewPipeline(Descriptor(), store, validate)
}
