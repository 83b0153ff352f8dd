package models

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

func TestOrderLineQuantityTextIsUnbounded(t *testing.T) {
	s, err := schema.Parse(&OrderLine{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	f := s.LookUpField("QuantityText")
	if f == nil {
		t.Fatal("no quantity_text field")
	}
	if f.TagSettings["TYPE"] != "text" || f.Size != 0 {
		t.Fatalf("quantity_text type %q size %d, want unbounded text", f.TagSettings["TYPE"], f.Size)
	}
}
