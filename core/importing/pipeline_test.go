package importing

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/storage/database/dummy"
)

// payment is a minimal record type exercising every stage of the pipeline.
type payment struct {
	ID        string          `json:"id,omitempty"`
	Student   string          `json:"studentId"`
	Amount    decimal.Decimal `json:"amount"`
	PaidOn    time.Time       `json:"paidOn"`
	Email     null.String     `json:"email"`
	Method    string          `json:"method"`
	CreatedBy string          `json:"createdBy"`
}

func paymentDescriptor() Descriptor[payment] {
	return Descriptor[payment]{
		Kind:     "payments",
		Columns:  []string{"studentId", "amount", "paidOn", "email", "method"},
		Required: []string{"studentId", "amount", "paidOn"},
		Parse: func(r *RowReader) payment {
			return payment{
				Student: r.String("studentId"),
				Amount:  r.Decimal("amount"),
				PaidOn:  r.Date("paidOn"),
				Email:   r.Email("email"),
				Method:  r.Enum("method", "cash", "card"),
			}
		},
		Reference: &Reference[payment]{
			Field:        "studentId",
			Label:        "Student",
			Collection:   "students",
			LookupFields: []string{"studentId", "rollNumber"},
			Get:          func(p *payment) string { return p.Student },
			Set:          func(p *payment, id string) { p.Student = id },
		},
		Keys: []UniqueKey[payment]{{
			Key: func(p payment) Key {
				return NewKey(p.Student, p.PaidOn.Format("2006-01-02"))
			},
			Filter: func(p payment) core.Filter {
				return core.Where(
					core.Eq{Field: "studentId", Value: p.Student},
					core.Eq{Field: "paidOn", Value: core.TimeValue(p.PaidOn)},
				)
			},
			Message: func(p payment) string {
				return "Payment already recorded for this student on " + p.PaidOn.Format("2006-01-02")
			},
		}},
		Finalize: func(p *payment, meta Meta) {
			p.CreatedBy = meta.Actor
		},
		Examples: [][]string{{"STU001", "100", "2024-01-15", "", "cash"}},
	}
}

// countingStore records the calls made to the wrapped store.
type countingStore struct {
	core.DocumentStore

	mu      sync.Mutex
	finds   int
	many    int
	inserts int
	fail    error
}

func (s *countingStore) Find(ctx context.Context, collection string, filter core.Filter) ([]core.Document, error) {
	s.mu.Lock()
	s.finds++
	s.mu.Unlock()
	return s.DocumentStore.Find(ctx, collection, filter)
}

func (s *countingStore) FindMany(ctx context.Context, collection string, filters []core.Filter) ([]core.Document, error) {
	s.mu.Lock()
	s.many++
	s.mu.Unlock()
	return s.DocumentStore.FindMany(ctx, collection, filters)
}

func (s *countingStore) InsertBatch(ctx context.Context, collection string, docs []core.Document) ([]string, error) {
	s.mu.Lock()
	s.inserts++
	s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	return s.DocumentStore.InsertBatch(ctx, collection, docs)
}

func seedStudents(t *testing.T, db core.DocumentStore, students ...core.Document) []string {
	ids, err := db.InsertBatch(context.Background(), "students", students)
	require.NoError(t, err)
	return ids
}

func TestPipeline_Import(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	studentIDs := seedStudents(t, db,
		core.Document{"studentId": "STU001", "rollNumber": "1"},
		core.Document{"studentId": "STU002", "rollNumber": "2"},
		core.Document{"studentId": "STU003", "rollNumber": "7"},
		core.Document{"studentId": "STU004", "rollNumber": "7"},
	)
	store := &countingStore{DocumentStore: db}
	p := NewPipeline(paymentDescriptor(), store, validator.New())

	csv := strings.Join([]string{
		"studentId,amount,paidOn,email,method",
		"STU001,100,2024-01-15,,cash",                         // 1 ok
		"STU001,100,01/15/2024,,card",                         // 2 duplicate of row 1
		"2,50.5,2024-01-16,PARENT@Mail.test,CARD",             // 3 ok, by roll number
		studentIDs[0] + ",10,2024-01-17,,",                    // 4 ok, canonical id
		"STU999,10,2024-01-17,,",                              // 5 unknown student
		"7,10,2024-01-17,,",                                   // 6 ambiguous roll number
		"STU002,-3,2024-01-17,,",                              // 7 negative amount
		"STU002,,2024-01-17,,",                                // 8 missing amount
		"STU002,3,2024-13-40,,",                               // 9 bad date
		"STU002,3,2024-01-18,nope,",                           // 10 bad email
		"STU002,3,2024-01-18,,cheque",                         // 11 bad method
		"b2a0c7cc-6a29-4ac4-a7a9-5bb9ab4c4a11,3,2024-01-18,,", // 12 unknown canonical id
	}, "\n")

	out, err := p.Import(ctx, strings.NewReader(csv), Meta{Actor: "u1", Now: time.Now()})
	require.NoError(t, err)

	assert.Equal(t, 12, out.TotalRows)
	assert.Equal(t, 3, out.SuccessfulUploads)
	assert.Equal(t, 1, out.Duplicates)
	assert.Equal(t, 3, out.InvalidReferences)
	assert.Equal(t, 5, out.Errors)
	assert.Equal(t, out.TotalRows, out.SuccessfulUploads+out.Duplicates+out.InvalidReferences+out.Errors)

	assert.Equal(t, []string{
		"Row 7: Invalid amount '-3'. Must be a positive number",
		"Row 8: Missing required field: amount",
		"Row 9: Invalid date for paidOn '2024-13-40'. Expected YYYY-MM-DD or MM/DD/YYYY",
		"Row 10: Invalid email format for email: nope",
		"Row 11: Invalid method 'cheque'. Must be one of: cash, card",
	}, out.ValidationErrorMessages)
	assert.Equal(t, []string{
		"Row 5: Student not found: STU999",
		"Row 6: Student is ambiguous: 7 matches several records",
		"Row 12: Student not found: b2a0c7cc-6a29-4ac4-a7a9-5bb9ab4c4a11",
	}, out.InvalidReferenceMessages)
	assert.Equal(t, []string{
		"Row 2: Payment already recorded for this student on 2024-01-15 (same as row 1)",
	}, out.DuplicateMessages)

	// resolve: one Find (canonical ids) + one FindMany (codes); reconcile: one FindMany; one insert
	assert.Equal(t, 1, store.finds)
	assert.Equal(t, 2, store.many)
	assert.Equal(t, 1, store.inserts)

	require.Len(t, out.UploadedRecords, 3)
	first := out.UploadedRecords[0].(payment)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, studentIDs[0], first.Student)
	assert.Equal(t, "u1", first.CreatedBy)
	assert.Equal(t, "cash", first.Method)
	second := out.UploadedRecords[1].(payment)
	assert.Equal(t, studentIDs[1], second.Student)
	assert.Equal(t, "parent@mail.test", second.Email.String)
	assert.Equal(t, "card", second.Method)
	assert.True(t, decimal.RequireFromString("50.5").Equal(second.Amount))

	// every uploaded record can be read back right away
	for _, rec := range out.UploadedRecords {
		id := rec.(payment).ID
		docs, err := db.Find(ctx, "payments", core.Where(core.Eq{Field: core.IDField, Value: id}))
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	}

	// a second run only finds duplicates
	again, err := p.Import(ctx, strings.NewReader(csv), Meta{Actor: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 0, again.SuccessfulUploads)
	assert.Equal(t, 4, again.Duplicates)
	assert.Equal(t, 3, db.Len("payments"))
	assert.Contains(t, again.DuplicateMessages, "Row 1: Payment already recorded for this student on 2024-01-15")
}

func TestPipeline_Import_SkipsUnneededQueries(t *testing.T) {
	db := dummydb.Open()
	seedStudents(t, db, core.Document{"studentId": "STU001"})
	store := &countingStore{DocumentStore: db}
	p := NewPipeline(paymentDescriptor(), store, validator.New())

	out, err := p.Import(context.Background(), strings.NewReader("studentId,amount,paidOn\nSTU001,1,2024-01-01\n"), Meta{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.SuccessfulUploads)
	assert.Equal(t, 0, store.finds, "no canonical identifier to verify")
	assert.Equal(t, 2, store.many)

	store = &countingStore{DocumentStore: db}
	p = NewPipeline(paymentDescriptor(), store, validator.New())
	out, err = p.Import(context.Background(), strings.NewReader("studentId,amount,paidOn\nSTU001,-1,2024-01-01\n"), Meta{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Errors)
	assert.Equal(t, 0, store.finds+store.many+store.inserts, "nothing left to resolve, reconcile or insert")
}

func TestPipeline_Import_Errors(t *testing.T) {
	db := dummydb.Open()
	seedStudents(t, db, core.Document{"studentId": "STU001"})

	t.Run("empty file", func(t *testing.T) {
		p := NewPipeline(paymentDescriptor(), db, validator.New())
		_, err := p.Import(context.Background(), strings.NewReader(""), Meta{})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, ErrEmptyFile, verr.Err)
	})

	t.Run("malformed file", func(t *testing.T) {
		p := NewPipeline(paymentDescriptor(), db, validator.New())
		_, err := p.Import(context.Background(), strings.NewReader("studentId,amount\n\"STU001,1\n"), Meta{})
		var verr *core.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("store failure", func(t *testing.T) {
		store := &countingStore{DocumentStore: db, fail: errors.New("connection reset")}
		p := NewPipeline(paymentDescriptor(), store, validator.New())
		out, err := p.Import(context.Background(), strings.NewReader("studentId,amount,paidOn\nSTU001,1,2024-01-01\n"), Meta{})
		assert.Nil(t, out)
		assert.EqualError(t, err, "inserting payments: connection reset")
		assert.Equal(t, 0, db.Len("payments"))
	})
}

func TestPipeline_Import_HeaderOnly(t *testing.T) {
	p := NewPipeline(paymentDescriptor(), dummydb.Open(), validator.New())
	out, err := p.Import(context.Background(), strings.NewReader("\ufeffstudentId,amount,paidOn\n"), Meta{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.TotalRows)
	assert.Empty(t, out.Warnings)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"totalRows": 0, "successfulUploads": 0, "duplicates": 0, "invalidReferences": 0, "errors": 0,
		"uploadedRecords": [], "duplicateMessages": [], "invalidReferenceMessages": [], "validationErrorMessages": []
	}`, string(data))
}

func TestPipeline_headerWarnings(t *testing.T) {
	p := NewPipeline(paymentDescriptor(), dummydb.Open(), validator.New())
	got := p.headerWarnings([]string{"studentId", "ammount", "paidOn", "colour"})
	assert.Equal(t, []string{
		"Unknown column 'ammount' ignored (did you mean 'amount'?)",
		"Unknown column 'colour' ignored",
		"Missing column 'amount': every row will be rejected",
	}, got)
}

func TestPipeline_Template(t *testing.T) {
	p := NewPipeline(paymentDescriptor(), dummydb.Open(), validator.New())
	assert.Equal(t, "studentId,amount,paidOn,email,method\nSTU001,100,2024-01-15,,cash\n", string(p.Template()))
	assert.Equal(t, "payments_upload_template.csv", TemplateFilename(p.Kind()))

	// the template is accepted by the importer itself
	_, rows, err := ReadRows(strings.NewReader(string(p.Template())))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "b2a0c7cc-6a29-4ac4-a7a9-5bb9ab4c4a11", want: "b2a0c7cc-6a29-4ac4-a7a9-5bb9ab4c4a11", ok: true},
		{in: "B2A0C7CC-6A29-4AC4-A7A9-5BB9AB4C4A11", want: "b2a0c7cc-6a29-4ac4-a7a9-5bb9ab4c4a11", ok: true},
		{in: "b2a0c7cc6a294ac4a7a95bb9ab4c4a11"},
		{in: "STU001"},
		{in: "zzzzzzzz-6a29-4ac4-a7a9-5bb9ab4c4a11"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CanonicalID(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
