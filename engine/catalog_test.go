package engine

import (
	"testing"

	"github.com/formlab/formlab/model"
	"github.com/shopspring/decimal"
)

func TestCatalogLookups(t *testing.T) {
	cat := NewCatalog([]model.Option{
		{ID: 1, Text: "1.5"},
		{ID: 2, Text: " Two "},
	})

	if _, ok := cat.ByID(1); !ok {
		t.Error("ByID(1) not found")
	}
	if _, ok := cat.ByID(9); ok {
		t.Error("ByID(9) should not match")
	}

	if _, ok := cat.ByText(" Two "); !ok {
		t.Error("ByText should match the literal text")
	}
	if _, ok := cat.ByText("two"); ok {
		t.Error("ByText is case sensitive")
	}
	if o, ok := cat.ByFoldedText("two"); !ok || o.ID != 2 {
		t.Error("ByFoldedText should trim and fold")
	}

	if o, ok := cat.ByNumericValue(decimal.NewFromFloat(1.5)); !ok || o.ID != 1 {
		t.Error("ByNumericValue should match 1.5")
	}
	if o, ok := cat.ByNumericValue(decimal.RequireFromString("1.50")); !ok || o.ID != 1 {
		t.Error("ByNumericValue should compare by value, not representation")
	}
}

func TestValidateNumericOptions(t *testing.T) {
	if err := ValidateNumericOptions([]string{"1", "2.5", "-3"}); err != nil {
		t.Errorf("valid options rejected: %v", err)
	}

	err := ValidateNumericOptions(nil)
	if kind, ok := KindOf(err); !ok || kind != NoOptionsDefined {
		t.Errorf("got %v, want NoOptionsDefined", err)
	}

	err = ValidateNumericOptions([]string{"1", "high"})
	if kind, ok := KindOf(err); !ok || kind != NonNumericOption {
		t.Errorf("got %v, want NonNumericOption", err)
	}
	want := `numeric_choice options must be numeric: "high"`
	if err.Error() != want {
		t.Errorf("got message %q, want %q", err.Error(), want)
	}
}
