package sqlxstore

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
)

const (
	defaultMaxFilters = 500
	// 3 parameters per row, well below the 65535 parameters Postgres accepts per statement
	maxInsertRows = 1000
)

// Store is a core.DocumentStore on the Postgres "documents" table (JSONB bodies).
type Store struct {
	db         *sqlx.DB
	maxFilters int
}

var _ core.DocumentStore = (*Store)(nil) // interface compliance check

func NewStore(db *sqlx.DB, conf *core.Config) *Store {
	maxFilters := conf.Import.MaxFiltersPerQuery
	if maxFilters <= 0 {
		maxFilters = defaultMaxFilters
	}
	return &Store{db: db, maxFilters: maxFilters}
}

type row struct {
	ID   string         `db:"id"`
	Body types.JSONText `db:"body"`
}

func (s *Store) Find(ctx context.Context, collection string, filter core.Filter) ([]core.Document, error) {
	return s.FindMany(ctx, collection, []core.Filter{filter})
}

// FindMany issues one statement per `maxFilters` filters.
func (s *Store) FindMany(ctx context.Context, collection string, filters []core.Filter) ([]core.Document, error) {
	docs := make([]core.Document, 0)
	seen := make(map[string]bool)
	for start := 0; start < len(filters); start += s.maxFilters {
		end := start + s.maxFilters
		if end > len(filters) {
			end = len(filters)
		}

		q, args, err := buildSelect(collection, filters[start:end])
		if err != nil {
			return nil, err
		}
		var rows []row
		if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
			return nil, errors.Wrapf(err, "selecting %s", collection)
		}

		for _, r := range rows {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			doc, err := decodeBody(r.Body)
			if err != nil {
				return nil, errors.Wrapf(err, "decoding %s %s", collection, r.ID)
			}
			doc[core.IDField] = r.ID
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// InsertBatch inserts every document in a single transaction.
func (s *Store) InsertBatch(ctx context.Context, collection string, docs []core.Document) (ids []string, err error) {
	if len(docs) == 0 {
		return []string{}, nil
	}

	ids = make([]string, len(docs))
	bodies := make([][]byte, len(docs))
	for i, doc := range docs {
		body := make(core.Document, len(doc))
		for k, v := range doc {
			if k != core.IDField {
				body[k] = v
			}
		}
		if bodies[i], err = json.Marshal(body); err != nil {
			return nil, errors.Wrapf(err, "encoding %s document %d", collection, i)
		}
		ids[i] = uuid.New().String()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for start := 0; start < len(docs); start += maxInsertRows {
		end := start + maxInsertRows
		if end > len(docs) {
			end = len(docs)
		}
		q, args := buildInsert(collection, ids[start:end], bodies[start:end])
		if _, err = tx.ExecContext(ctx, q, args...); err != nil {
			return nil, errors.Wrapf(err, "inserting %s", collection)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return ids, nil
}

func decodeBody(body types.JSONText) (core.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc core.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = make(core.Document)
	}
	return doc, nil
}

// queryBuilder numbers bind parameters in the order they are added.
type queryBuilder struct {
	args []interface{}
}

func (b *queryBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *queryBuilder) field(name string) string {
	if name == core.IDField {
		return "id::text"
	}
	return "body->>" + b.arg(name) + "::text"
}

func (b *queryBuilder) predicate(p core.Predicate) (string, error) {
	switch p := p.(type) {
	case core.Eq:
		if p.Field == core.IDField {
			return "id::text = " + b.arg(p.Value), nil
		}
		return "coalesce(" + b.field(p.Field) + ", '') = " + b.arg(p.Value), nil
	case core.In:
		if len(p.Values) == 0 {
			return "FALSE", nil
		}
		return b.field(p.Field) + " = ANY(" + b.arg(pq.Array(p.Values)) + ")", nil
	case core.Range:
		var conds []string
		if p.From != "" {
			conds = append(conds, b.field(p.Field)+" >= "+b.arg(p.From))
		}
		if p.To != "" {
			to := b.arg(p.To)
			conds = append(conds, "left("+b.field(p.Field)+", char_length("+to+"::text)) <= "+to)
		}
		if len(conds) == 0 {
			return b.field(p.Field) + " IS NOT NULL", nil
		}
		return strings.Join(conds, " AND "), nil
	default:
		return "", errors.Errorf("unsupported predicate %T", p)
	}
}

func (b *queryBuilder) filter(f core.Filter) (string, error) {
	if len(f) == 0 {
		return "TRUE", nil
	}
	conds := make([]string, len(f))
	for i, p := range f {
		cond, err := b.predicate(p)
		if err != nil {
			return "", err
		}
		conds[i] = "(" + cond + ")"
	}
	return strings.Join(conds, " AND "), nil
}

// buildSelect renders the disjunction of `filters` over one collection.
func buildSelect(collection string, filters []core.Filter) (string, []interface{}, error) {
	b := new(queryBuilder)
	var q strings.Builder
	q.WriteString("SELECT id, body FROM documents WHERE collection = ")
	q.WriteString(b.arg(collection))

	if len(filters) == 0 {
		q.WriteString(" AND FALSE")
	} else {
		ors := make([]string, len(filters))
		for i, f := range filters {
			if err := f.Validate(); err != nil {
				return "", nil, err
			}
			cond, err := b.filter(f)
			if err != nil {
				return "", nil, err
			}
			ors[i] = "(" + cond + ")"
		}
		q.WriteString(" AND (")
		q.WriteString(strings.Join(ors, " OR "))
		q.WriteString(")")
	}
	q.WriteString(" ORDER BY created_at, id")
	return q.String(), b.args, nil
}

func buildInsert(collection string, ids []string, bodies [][]byte) (string, []interface{}) {
	b := new(queryBuilder)
	values := make([]string, len(ids))
	for i := range ids {
		values[i] = "(" + b.arg(ids[i]) + ", " + b.arg(collection) + ", " + b.arg(string(bodies[i])) + "::jsonb)"
	}
	return "INSERT INTO documents (id, collection, body) VALUES " + strings.Join(values, ", "), b.args
}
