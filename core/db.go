package core

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// IDField holds a document's canonical identifier.
const IDField = "id"

var fieldNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type (
	// Document is a persisted record as seen by the backing store.
	Document map[string]interface{}

	// DocumentStore is the backing store of imported records.
	DocumentStore interface {
		Find(ctx context.Context, collection string, filter Filter) ([]Document, error)
		// FindMany returns the documents matching any of the filters in one batched call.
		FindMany(ctx context.Context, collection string, filters []Filter) ([]Document, error)
		// InsertBatch stores all documents or none and returns their canonical identifiers, in order.
		InsertBatch(ctx context.Context, collection string, docs []Document) ([]string, error)
	}
)

func (d Document) ID() string {
	id, _ := d.Text(IDField)
	return id
}

// Text returns the textual form of a scalar field, the way a JSON document store exposes it.
// Absent, null and non-scalar fields are reported as not ok.
func (d Document) Text(field string) (string, bool) {
	switch v := d[field].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// Predicate is one of Eq, In or Range.
type Predicate interface {
	FieldName() string
	Match(doc Document) bool
	predicate()
}

// Eq matches documents whose field equals Value. An empty Value also matches absent or null fields.
type Eq struct {
	Field string
	Value string
}

// In matches documents whose field is one of Values.
type In struct {
	Field  string
	Values []string
}

// Range matches documents whose field lies within [From, To]; an empty bound is open.
// To is compared with as many leading characters of the field as it has, so the date "2024-01-31"
// covers every timestamp of that day.
type Range struct {
	Field string
	From  string
	To    string
}

func (p Eq) FieldName() string    { return p.Field }
func (p In) FieldName() string    { return p.Field }
func (p Range) FieldName() string { return p.Field }

func (Eq) predicate()    {}
func (In) predicate()    {}
func (Range) predicate() {}

func (p Eq) Match(doc Document) bool {
	text, _ := doc.Text(p.Field)
	return text == p.Value
}

func (p In) Match(doc Document) bool {
	text, ok := doc.Text(p.Field)
	if !ok {
		return false
	}
	for _, v := range p.Values {
		if v == text {
			return true
		}
	}
	return false
}

func (p Range) Match(doc Document) bool {
	text, ok := doc.Text(p.Field)
	if !ok {
		return false
	}
	if p.From != "" && text < p.From {
		return false
	}
	if p.To != "" && truncate(text, utf8.RuneCountInString(p.To)) > p.To {
		return false
	}
	return true
}

func truncate(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}

// Filter is a conjunction of predicates. The empty Filter matches every document.
type Filter []Predicate

func Where(preds ...Predicate) Filter {
	return preds
}

func (f Filter) Match(doc Document) bool {
	for _, p := range f {
		if !p.Match(doc) {
			return false
		}
	}
	return true
}

// Validate checks that every predicate targets a plain field name.
func (f Filter) Validate() error {
	for _, p := range f {
		if err := ValidateFieldName(p.FieldName()); err != nil {
			return err
		}
	}
	return nil
}

func ValidateFieldName(name string) error {
	if !fieldNameRegex.MatchString(name) {
		return errors.Errorf("invalid document field name %q", name)
	}
	return nil
}
