package importing

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/trezcool/schoolhub/core"
)

// Meta describes who runs an import, and when.
type Meta struct {
	Actor     string
	ActorName string
	Now       time.Time
}

// Reference declares a foreign identifier carried by every row of an import.
type Reference[T any] struct {
	Field      string // column holding the supplied value
	Label      string // used in "<Label> not found" messages
	Collection string
	// LookupFields are searched, in priority order, for values that are not canonical identifiers.
	LookupFields []string

	Get func(*T) string
	Set func(*T, string)
}

// UniqueKey is a uniqueness rule: no two records of a kind share the same Key.
type UniqueKey[T any] struct {
	Key    func(T) Key
	Filter func(T) core.Filter // matches the stored records with the same key
	// Message explains why a row colliding on this key was skipped.
	Message func(T) string
}

// Descriptor binds an entity type to the generic import engine.
type Descriptor[T any] struct {
	Kind      string // also the store collection
	Columns   []string
	Required  []string
	Parse     func(r *RowReader) T
	Reference *Reference[T]
	// Keys are checked in order; a row colliding on any of them is a duplicate.
	Keys []UniqueKey[T]
	// Finalize stamps server-side fields before insertion.
	Finalize func(*T, Meta)
	Examples [][]string
}

func (d Descriptor[T]) TemplateFilename() string {
	return TemplateFilename(d.Kind)
}

// Template renders the header row followed by the example rows.
func (d Descriptor[T]) Template() []byte {
	var buff bytes.Buffer
	w := csv.NewWriter(&buff)
	_ = w.Write(d.Columns)
	_ = w.WriteAll(d.Examples) // flushes; writing to a bytes.Buffer cannot fail
	return buff.Bytes()
}

func TemplateFilename(kind string) string {
	return kind + "_upload_template.csv"
}
