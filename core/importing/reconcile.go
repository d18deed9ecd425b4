package importing

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
)

// reconcile drops rows colliding with a stored record, or with an earlier row of the same file, on any unique key.
// Existing keys are fetched with a single FindMany.
func (p *Pipeline[T]) reconcile(ctx context.Context, rows []pending[T], out *Outcome) ([]pending[T], error) {
	uniques := p.desc.Keys
	if len(rows) == 0 || len(uniques) == 0 {
		return rows, nil
	}

	// keys[i][u] is the key of rows[i] under uniques[u]
	keys := make([][]Key, len(rows))
	queued := make([]map[Key]bool, len(uniques))
	for u := range uniques {
		queued[u] = make(map[Key]bool, len(rows))
	}
	var filters []core.Filter
	for i, row := range rows {
		keys[i] = make([]Key, len(uniques))
		for u, uk := range uniques {
			k := uk.Key(row.rec)
			keys[i][u] = k
			if !queued[u][k] {
				queued[u][k] = true
				filters = append(filters, uk.Filter(row.rec))
			}
		}
	}

	docs, err := p.store.FindMany(ctx, p.desc.Kind, filters)
	if err != nil {
		return nil, errors.Wrapf(err, "checking existing %s", p.desc.Kind)
	}
	stored := make([]map[Key]bool, len(uniques))
	for u := range uniques {
		stored[u] = make(map[Key]bool, len(docs))
	}
	for _, doc := range docs {
		rec, err := decodeDocument[T](doc)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding stored %s %s", p.desc.Kind, doc.ID())
		}
		for u, uk := range uniques {
			stored[u][uk.Key(rec)] = true
		}
	}

	firstRow := make([]map[Key]int, len(uniques))
	for u := range uniques {
		firstRow[u] = make(map[Key]int, len(rows))
	}
	unique := rows[:0]
next:
	for i, row := range rows {
		for u, uk := range uniques {
			k := keys[i][u]
			if stored[u][k] {
				out.addDuplicate(row.row, uk.Message(row.rec))
				continue next
			}
			if first, ok := firstRow[u][k]; ok {
				out.addDuplicate(row.row, fmt.Sprintf("%s (same as row %d)", uk.Message(row.rec), first))
				continue next
			}
		}
		for u := range uniques {
			firstRow[u][keys[i][u]] = row.row
		}
		unique = append(unique, row)
	}
	return unique, nil
}
