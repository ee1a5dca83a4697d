package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
)

type mockCatalog struct {
	entity.Catalog
	SKU      string `db:"sku" json:"sku"`
	Location string `db:"location" json:"location"`
	internal string // no db tag, must be skipped
}

func TestExtractDBColumns_EmbeddedCatalog(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expectedCols := []string{
		"id", "version", "created_at", "updated_at",
		"code", "name", "deletion_mark",
		"sku", "location",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.Len(t, cols, len(expectedCols))
}

func TestStructToMap_EmbeddedCatalog(t *testing.T) {
	cat := mockCatalog{
		Catalog:  entity.NewCatalog("PR-001", "Bottled Water"),
		SKU:      "WTR-500",
		Location: "aisle 3",
		internal: "hidden",
	}
	cat.DeletionMark = true
	cat.SetVersion(5)

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, "PR-001", m["code"])
	assert.Equal(t, "Bottled Water", m["name"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "WTR-500", m["sku"])
	assert.Equal(t, "aisle 3", m["location"])
	assert.NotContains(t, m, "internal")
}

func TestStructToMap_PointerInput(t *testing.T) {
	cat := &mockCatalog{Catalog: entity.NewCatalog("", "Juice")}

	m := StructToMap(cat)

	assert.Equal(t, "Juice", m["name"])
	assert.False(t, id.IsNil(m["id"].(id.ID)))
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("not a struct"))
}
