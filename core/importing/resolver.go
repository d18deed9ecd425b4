package importing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/schoolhub/core"
)

// Resolution maps supplied reference values to canonical identifiers.
type Resolution struct {
	IDs       map[string]string
	Ambiguous map[string]bool
}

// CanonicalID reports whether `v` is shaped like a canonical identifier, and returns its normal form.
func CanonicalID(v string) (string, bool) {
	if len(v) != 36 {
		return "", false
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// ResolveReferences resolves `values` against `collection` with at most two concurrent store calls:
// canonical identifiers are verified with Find, other values are searched on `lookupFields` with FindMany.
// A call is skipped when it has nothing to look for.
func ResolveReferences(
	ctx context.Context,
	store core.DocumentStore,
	collection string,
	lookupFields []string,
	values []string,
) (Resolution, error) {
	res := Resolution{IDs: make(map[string]string, len(values)), Ambiguous: make(map[string]bool)}

	seen := make(map[string]bool, len(values))
	canonicalOf := make(map[string]string)
	var ids, codes []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		if id, ok := CanonicalID(v); ok {
			canonicalOf[v] = id
			ids = append(ids, id)
		} else {
			codes = append(codes, v)
		}
	}

	var verified, matched []core.Document
	g, gctx := errgroup.WithContext(ctx)
	if len(ids) > 0 {
		g.Go(func() error {
			docs, err := store.Find(gctx, collection, core.Where(core.In{Field: core.IDField, Values: ids}))
			if err != nil {
				return errors.Wrapf(err, "verifying %s identifiers", collection)
			}
			verified = docs
			return nil
		})
	}
	if len(codes) > 0 && len(lookupFields) > 0 {
		g.Go(func() error {
			filters := make([]core.Filter, len(lookupFields))
			for i, field := range lookupFields {
				filters[i] = core.Where(core.In{Field: field, Values: codes})
			}
			docs, err := store.FindMany(gctx, collection, filters)
			if err != nil {
				return errors.Wrapf(err, "looking up %s", collection)
			}
			matched = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	existing := make(map[string]bool, len(verified))
	for _, doc := range verified {
		existing[doc.ID()] = true
	}
	for v, id := range canonicalOf {
		if existing[id] {
			res.IDs[v] = id
		}
	}

	matches := indexMatches(matched, lookupFields, codes)
	for _, code := range codes {
		for _, field := range lookupFields {
			found := matches[field][code]
			if len(found) == 0 {
				continue
			}
			if len(found) == 1 {
				for id := range found {
					res.IDs[code] = id
				}
			} else {
				res.Ambiguous[code] = true
			}
			break
		}
	}
	return res, nil
}

// indexMatches groups the identifiers of `docs` by lookup field and supplied code.
func indexMatches(docs []core.Document, fields, codes []string) map[string]map[string]map[string]bool {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}
	index := make(map[string]map[string]map[string]bool, len(fields))
	for _, field := range fields {
		byCode := make(map[string]map[string]bool)
		for _, doc := range docs {
			text, ok := doc.Text(field)
			if !ok || !wanted[text] {
				continue
			}
			if byCode[text] == nil {
				byCode[text] = make(map[string]bool)
			}
			byCode[text][doc.ID()] = true
		}
		index[field] = byCode
	}
	return index
}

func (p *Pipeline[T]) resolve(ctx context.Context, rows []pending[T], out *Outcome) ([]pending[T], error) {
	ref := p.desc.Reference
	if ref == nil || len(rows) == 0 {
		return rows, nil
	}

	values := make([]string, len(rows))
	for i := range rows {
		values[i] = ref.Get(&rows[i].rec)
	}
	res, err := ResolveReferences(ctx, p.store, ref.Collection, ref.LookupFields, values)
	if err != nil {
		return nil, err
	}

	resolved := rows[:0]
	for i, row := range rows {
		v := values[i]
		if v == "" {
			resolved = append(resolved, row)
			continue
		}
		id, ok := res.IDs[v]
		switch {
		case ok:
			ref.Set(&row.rec, id)
			resolved = append(resolved, row)
		case res.Ambiguous[v]:
			out.addInvalidReference(row.row, fmt.Sprintf("%s is ambiguous: %s matches several records", ref.Label, v))
		default:
			out.addInvalidReference(row.row, fmt.Sprintf("%s not found: %s", ref.Label, v))
		}
	}
	return resolved, nil
}
