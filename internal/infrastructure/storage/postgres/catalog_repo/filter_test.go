package catalog_repo

import (
	"testing"

	"stockyard/internal/domain/filter"
)

func TestApplyAdvancedFilters_Operators(t *testing.T) {
	repo := NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "col1"}, func() any { return nil })

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "Equal",
			item:     filter.Item{Field: "col1", Operator: filter.Equal, Value: "x"},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE col1 = $1",
			wantArgs: []any{"x"},
		},
		{
			name:     "Greater",
			item:     filter.Item{Field: "col1", Operator: filter.Greater, Value: 10},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE col1 > $1",
			wantArgs: []any{10},
		},
		{
			name:     "Less",
			item:     filter.Item{Field: "col1", Operator: filter.Less, Value: 5},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE col1 < $1",
			wantArgs: []any{5},
		},
		{
			name:     "GreaterOrEqual",
			item:     filter.Item{Field: "col1", Operator: filter.GreaterOrEqual, Value: 3},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE col1 >= $1",
			wantArgs: []any{3},
		},
		{
			name:     "Contains",
			item:     filter.Item{Field: "col1", Operator: filter.Contains, Value: "abc"},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE col1 ILIKE $1",
			wantArgs: []any{"%abc%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseQ := repo.baseSelect()
			q, err := repo.applyAdvancedFilters(baseQ, []filter.Item{tt.item})
			if err != nil {
				t.Fatalf("applyAdvancedFilters failed: %v", err)
			}

			sql, args, err := q.ToSql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}

			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("Args count mismatch\nwant: %d\ngot:  %d", len(tt.wantArgs), len(args))
			}
			if args[0] != tt.wantArgs[0] {
				t.Errorf("Args mismatch\nwant: %v\ngot:  %v", tt.wantArgs[0], args[0])
			}
		})
	}
}

func TestApplyAdvancedFilters_InvalidColumn(t *testing.T) {
	repo := NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "col1"}, func() any { return nil })

	baseQ := repo.baseSelect()
	_, err := repo.applyAdvancedFilters(baseQ, []filter.Item{
		{Field: "col1; DROP TABLE test_table", Operator: filter.Equal, Value: 1},
	})
	if err == nil {
		t.Fatal("expected error for unknown column, got nil")
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "col1"}, func() any { return nil })

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{name: "default", orderBy: "", want: "name ASC"},
		{name: "ascending", orderBy: "col1", want: "col1 ASC"},
		{name: "explicit ascending", orderBy: "+col1", want: "col1 ASC"},
		{name: "descending", orderBy: "-created_at", want: "created_at DESC"},
		{name: "unknown field", orderBy: "secret", wantErr: true},
		{name: "bare prefix", orderBy: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %q", tt.orderBy, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOrderBy(%q) failed: %v", tt.orderBy, err)
			}
			if got != tt.want {
				t.Errorf("parseOrderBy(%q)\nwant: %s\ngot:  %s", tt.orderBy, tt.want, got)
			}
		})
	}
}
