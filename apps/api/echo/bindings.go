package echoapi

import (
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolhub/core"
)

// query param suffixes
const (
	inSuffix   = "__in"
	fromSuffix = "__from"
	toSuffix   = "__to"
)

// QueryFilter binds list query params to a core.Filter:
// `field=v` (Eq), `field__in=a,b` (In), `field__from=x&field__to=y` (Range).
type QueryFilter struct {
	Filter core.Filter
}

func (qf *QueryFilter) Bind(ctx echo.Context) error {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return nil
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ranges := make(map[string]*core.Range)
	for _, key := range keys {
		vals := data[key]
		if len(vals) == 0 {
			continue
		}
		val := core.CleanString(vals[0])

		switch {
		case strings.HasSuffix(key, inSuffix):
			qf.Filter = append(qf.Filter, core.In{Field: strings.TrimSuffix(key, inSuffix), Values: core.SplitList(val)})
		case strings.HasSuffix(key, fromSuffix):
			rangeFor(ranges, strings.TrimSuffix(key, fromSuffix)).From = val
		case strings.HasSuffix(key, toSuffix):
			rangeFor(ranges, strings.TrimSuffix(key, toSuffix)).To = val
		default:
			qf.Filter = append(qf.Filter, core.Eq{Field: key, Value: val})
		}
	}

	fields := make([]string, 0, len(ranges))
	for field := range ranges {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		qf.Filter = append(qf.Filter, *ranges[field])
	}

	if err := qf.Filter.Validate(); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

func rangeFor(ranges map[string]*core.Range, field string) *core.Range {
	r, ok := ranges[field]
	if !ok {
		r = &core.Range{Field: field}
		ranges[field] = r
	}
	return r
}
