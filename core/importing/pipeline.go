package importing

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/schoolhub/core"
)

// minimum similarity for a column name suggestion
const suggestionRatio = 0.75

// Importer runs bulk imports of one kind of record.
type Importer interface {
	Kind() string
	Columns() []string
	Template() []byte
	Import(ctx context.Context, src io.Reader, meta Meta) (*Outcome, error)
}

// Pipeline imports comma separated records described by a Descriptor.
// Stages run one after the other: parse, validate, resolve references, reconcile duplicates, insert.
type Pipeline[T any] struct {
	desc     Descriptor[T]
	store    core.DocumentStore
	validate *validator.Validate
}

var _ Importer = (*Pipeline[struct{}])(nil)

func NewPipeline[T any](desc Descriptor[T], store core.DocumentStore, validate *validator.Validate) *Pipeline[T] {
	return &Pipeline[T]{desc: desc, store: store, validate: validate}
}

// pending is a row that passed every stage so far.
type pending[T any] struct {
	row int
	rec T
}

func (p *Pipeline[T]) Kind() string {
	return p.desc.Kind
}

func (p *Pipeline[T]) Columns() []string {
	return append([]string(nil), p.desc.Columns...)
}

func (p *Pipeline[T]) Template() []byte {
	return p.desc.Template()
}

// Import categorizes every row of `src` and inserts the accepted ones.
// Rejected rows never abort the import; undecodable input or a store failure does, and nothing is reported then.
func (p *Pipeline[T]) Import(ctx context.Context, src io.Reader, meta Meta) (*Outcome, error) {
	header, rows, err := ReadRows(src)
	if err != nil {
		var perr *csv.ParseError
		if errors.Is(err, ErrEmptyFile) || errors.As(err, &perr) {
			return nil, core.NewValidationError(err, core.FieldError{Field: "csvFile", Error: err.Error()})
		}
		return nil, errors.Wrap(err, "reading upload")
	}

	out := newOutcome(len(rows))
	out.Warnings = p.headerWarnings(header)

	ready := p.validateRows(rows, out)
	if ready, err = p.resolve(ctx, ready, out); err != nil {
		return nil, err
	}
	if ready, err = p.reconcile(ctx, ready, out); err != nil {
		return nil, err
	}
	if err := p.insert(ctx, ready, meta, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline[T]) validateRows(rows []RawRow, out *Outcome) []pending[T] {
	ready := make([]pending[T], 0, len(rows))
	for _, row := range rows {
		rec, err := p.validateRow(row)
		if err != nil {
			out.addValidationError(row.Number, err.Error())
			continue
		}
		ready = append(ready, pending[T]{row: row.Number, rec: rec})
	}
	return ready
}

func (p *Pipeline[T]) validateRow(row RawRow) (T, error) {
	var zero T
	for _, field := range p.desc.Required {
		if core.CleanString(row.Get(field)) == "" {
			return zero, &RowError{Field: field, Message: "Missing required field: " + field}
		}
	}

	r := NewRowReader(row, p.validate)
	rec := p.desc.Parse(r)
	if err := r.Err(); err != nil {
		return zero, err
	}
	return rec, nil
}

func (p *Pipeline[T]) insert(ctx context.Context, ready []pending[T], meta Meta, out *Outcome) error {
	if len(ready) == 0 {
		return nil
	}

	docs := make([]core.Document, len(ready))
	for i := range ready {
		if p.desc.Finalize != nil {
			p.desc.Finalize(&ready[i].rec, meta)
		}
		doc, err := encodeDocument(ready[i].rec)
		if err != nil {
			return errors.Wrapf(err, "encoding row %d", ready[i].row)
		}
		delete(doc, core.IDField)
		docs[i] = doc
	}

	ids, err := p.store.InsertBatch(ctx, p.desc.Kind, docs)
	if err != nil {
		return errors.Wrapf(err, "inserting %s", p.desc.Kind)
	}
	if len(ids) != len(docs) {
		return errors.Errorf("inserting %s: got %d identifiers for %d records", p.desc.Kind, len(ids), len(docs))
	}

	for i, id := range ids {
		docs[i][core.IDField] = id
		rec, err := decodeDocument[T](docs[i])
		if err != nil {
			return errors.Wrapf(err, "decoding row %d", ready[i].row)
		}
		out.addUploaded(rec)
	}
	return nil
}

// headerWarnings reports ignored columns, with a suggestion when one is probably misspelled,
// and required columns that are missing altogether.
func (p *Pipeline[T]) headerWarnings(header []string) []string {
	known := make(map[string]bool, len(p.desc.Columns))
	for _, c := range p.desc.Columns {
		known[c] = true
	}
	present := make(map[string]bool, len(header))

	var warnings []string
	for _, h := range header {
		present[h] = true
		if h == "" || known[h] {
			continue
		}
		if s := suggestColumn(h, p.desc.Columns); s != "" {
			warnings = append(warnings, fmt.Sprintf("Unknown column '%s' ignored (did you mean '%s'?)", h, s))
		} else {
			warnings = append(warnings, fmt.Sprintf("Unknown column '%s' ignored", h))
		}
	}
	for _, c := range p.desc.Required {
		if !present[c] {
			warnings = append(warnings, fmt.Sprintf("Missing column '%s': every row will be rejected", c))
		}
	}
	return warnings
}

func suggestColumn(name string, columns []string) string {
	best, bestRatio := "", suggestionRatio
	for _, c := range columns {
		m := difflib.NewMatcher(strings.Split(strings.ToLower(name), ""), strings.Split(strings.ToLower(c), ""))
		if ratio := m.Ratio(); ratio >= bestRatio {
			best, bestRatio = c, ratio
		}
	}
	return best
}

func encodeDocument(v interface{}) (core.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc core.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeDocument[T any](doc core.Document) (T, error) {
	var rec T
	data, err := json.Marshal(doc)
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(data, &rec)
	return rec, err
}
