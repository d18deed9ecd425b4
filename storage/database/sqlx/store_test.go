package sqlxstore

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core"
)

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name     string
		filters  []core.Filter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "no filter",
			wantSQL:  "SELECT id, body FROM documents WHERE collection = $1 AND FALSE ORDER BY created_at, id",
			wantArgs: []interface{}{"fees"},
		},
		{
			name:     "match all",
			filters:  []core.Filter{core.Where()},
			wantSQL:  "SELECT id, body FROM documents WHERE collection = $1 AND ((TRUE)) ORDER BY created_at, id",
			wantArgs: []interface{}{"fees"},
		},
		{
			name: "conjunction",
			filters: []core.Filter{core.Where(
				core.Eq{Field: "studentId", Value: "6f1d"},
				core.Eq{Field: "month", Value: ""},
			)},
			wantSQL: "SELECT id, body FROM documents WHERE collection = $1 AND " +
				"(((coalesce(body->>$2::text, '') = $3) AND (coalesce(body->>$4::text, '') = $5))) ORDER BY created_at, id",
			wantArgs: []interface{}{"fees", "studentId", "6f1d", "month", ""},
		},
		{
			name: "disjunction",
			filters: []core.Filter{
				core.Where(core.In{Field: core.IDField, Values: []string{"a", "b"}}),
				core.Where(core.In{Field: "rollNumber", Values: []string{"12"}}),
				core.Where(core.In{Field: "rollNumber"}),
			},
			wantSQL: "SELECT id, body FROM documents WHERE collection = $1 AND " +
				"(((id::text = ANY($2))) OR ((body->>$3::text = ANY($4))) OR ((FALSE))) ORDER BY created_at, id",
			wantArgs: []interface{}{"fees", pq.Array([]string{"a", "b"}), "rollNumber", pq.Array([]string{"12"})},
		},
		{
			name:    "range",
			filters: []core.Filter{core.Where(core.Range{Field: "date", From: "2024-01-01", To: "2024-01-31"})},
			wantSQL: "SELECT id, body FROM documents WHERE collection = $1 AND " +
				"(((body->>$2::text >= $3 AND left(body->>$4::text, char_length($5::text)) <= $5))) ORDER BY created_at, id",
			wantArgs: []interface{}{"fees", "date", "2024-01-01", "date", "2024-01-31"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args, err := buildSelect("fees", tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, q)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildSelect_InvalidField(t *testing.T) {
	_, _, err := buildSelect("fees", []core.Filter{core.Where(core.Eq{Field: "x') OR 1=1 --"})})
	assert.Error(t, err)
}

func TestBuildInsert(t *testing.T) {
	q, args := buildInsert("fees", []string{"id1", "id2"}, [][]byte{[]byte(`{"a":1}`), []byte(`{"a":2}`)})
	assert.Equal(t, "INSERT INTO documents (id, collection, body) VALUES ($1, $2, $3::jsonb), ($4, $5, $6::jsonb)", q)
	assert.Equal(t, []interface{}{"id1", "fees", `{"a":1}`, "id2", "fees", `{"a":2}`}, args)
}

func TestNewStore(t *testing.T) {
	conf := &core.Config{}
	assert.Equal(t, defaultMaxFilters, NewStore(nil, conf).maxFilters)

	conf.Import.MaxFiltersPerQuery = 2
	assert.Equal(t, 2, NewStore(nil, conf).maxFilters)
}
