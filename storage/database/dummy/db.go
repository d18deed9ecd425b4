package dummydb

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
)

type (
	// DB is an in-memory core.DocumentStore. Documents are kept JSON encoded, like a JSONB column would.
	DB struct {
		mu          sync.RWMutex
		collections map[string]*collection
	}

	collection struct {
		ids  []string // insertion order
		docs map[string][]byte
	}
)

var _ core.DocumentStore = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{collections: make(map[string]*collection)}
}

// Reset drops every collection.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.collections = make(map[string]*collection)
}

// Len returns the number of documents in `name`.
func (db *DB) Len(name string) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if c, ok := db.collections[name]; ok {
		return len(c.ids)
	}
	return 0
}

func (db *DB) Find(ctx context.Context, name string, filter core.Filter) ([]core.Document, error) {
	return db.FindMany(ctx, name, []core.Filter{filter})
}

func (db *DB) FindMany(ctx context.Context, name string, filters []core.Filter) ([]core.Document, error) {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	docs := make([]core.Document, 0)
	c, ok := db.collections[name]
	if !ok || len(filters) == 0 {
		return docs, nil
	}
	for _, id := range c.ids {
		doc, err := decode(c.docs[id])
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s %s", name, id)
		}
		for _, f := range filters {
			if f.Match(doc) {
				docs = append(docs, doc)
				break
			}
		}
	}
	return docs, nil
}

func (db *DB) InsertBatch(ctx context.Context, name string, docs []core.Document) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// encode everything first: a failure leaves the collection untouched
	ids := make([]string, len(docs))
	encoded := make([][]byte, len(docs))
	for i, doc := range docs {
		ids[i] = uuid.New().String()
		body := make(core.Document, len(doc)+1)
		for k, v := range doc {
			body[k] = v
		}
		body[core.IDField] = ids[i]

		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s document %d", name, i)
		}
		encoded[i] = data
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.collections[name]
	if !ok {
		c = &collection{docs: make(map[string][]byte)}
		db.collections[name] = c
	}
	for i, id := range ids {
		c.ids = append(c.ids, id)
		c.docs[id] = encoded[i]
	}
	return ids, nil
}

func decode(data []byte) (core.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc core.Document
	err := dec.Decode(&doc)
	return doc, err
}
