package core

import (
	"encoding/json"
	"testing"
)

func TestFilter_Match(t *testing.T) {
	doc := Document{
		"id":        "6f1d",
		"studentId": "STU001",
		"amount":    json.Number("5000"),
		"paid":      false,
		"date":      "2024-01-15T00:00:00Z",
		"month":     nil,
		"tags":      []interface{}{"a"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "empty filter", filter: Where(), want: true},
		{name: "eq", filter: Where(Eq{Field: "studentId", Value: "STU001"}), want: true},
		{name: "eq mismatch", filter: Where(Eq{Field: "studentId", Value: "STU002"}), want: false},
		{name: "eq number", filter: Where(Eq{Field: "amount", Value: "5000"}), want: true},
		{name: "eq bool", filter: Where(Eq{Field: "paid", Value: "false"}), want: true},
		{name: "eq empty matches null", filter: Where(Eq{Field: "month", Value: ""}), want: true},
		{name: "eq empty matches absent", filter: Where(Eq{Field: "term", Value: ""}), want: true},
		{name: "eq on non scalar", filter: Where(Eq{Field: "tags", Value: "a"}), want: false},
		{name: "in", filter: Where(In{Field: "studentId", Values: []string{"X", "STU001"}}), want: true},
		{name: "in mismatch", filter: Where(In{Field: "studentId", Values: []string{"X"}}), want: false},
		{name: "in absent", filter: Where(In{Field: "term", Values: []string{""}}), want: false},
		{name: "range", filter: Where(Range{Field: "date", From: "2024-01-01T00:00:00Z", To: "2024-01-31T00:00:00Z"}), want: true},
		{name: "range open end", filter: Where(Range{Field: "date", From: "2024-01-15T00:00:00Z"}), want: true},
		{name: "range before", filter: Where(Range{Field: "date", To: "2024-01-14T00:00:00Z"}), want: false},
		{name: "range to same day", filter: Where(Range{Field: "date", To: "2024-01-15"}), want: true},
		{name: "range to day before", filter: Where(Range{Field: "date", To: "2024-01-14"}), want: false},
		{name: "range from same day", filter: Where(Range{Field: "date", From: "2024-01-15"}), want: true},
		{
			name:   "conjunction",
			filter: Where(Eq{Field: "studentId", Value: "STU001"}, Eq{Field: "id", Value: "nope"}),
			want:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(doc); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Validate(t *testing.T) {
	if err := Where(Eq{Field: "studentId"}, In{Field: "_id"}).Validate(); err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}
	for _, name := range []string{"", "body->>'x'", "1abc", "a b", "a;drop"} {
		if err := Where(Eq{Field: name}).Validate(); err == nil {
			t.Errorf("Validate(%q) expected an error", name)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" Allergic to nuts, , Asthma ,")
	if len(got) != 2 || got[0] != "Allergic to nuts" || got[1] != "Asthma" {
		t.Errorf("SplitList() = %q", got)
	}
	if got := SplitList("  "); len(got) != 0 {
		t.Errorf("SplitList() = %q, want empty", got)
	}
}
