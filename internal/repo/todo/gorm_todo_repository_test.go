package todo_test

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"

	. "github.com/mkrupp/simpletodo/internal/repo/todo"
)

func TestTodoItemModel_OwnerForeignKey(t *testing.T) {
	t.Parallel()

	//nolint:exhaustruct
	parsed, err := schema.Parse(&TodoItemModel{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}

	rel, ok := parsed.Relationships.Relations["Owner"]
	if !ok {
		t.Fatal("expected an Owner relationship")
	}

	if rel.Type != schema.BelongsTo {
		t.Errorf("relationship type = %v, want %v", rel.Type, schema.BelongsTo)
	}

	constraint := rel.ParseConstraint()
	if constraint == nil {
		t.Fatal("expected a foreign key constraint on todo_items")
	}

	if constraint.ReferenceSchema.Table != "users" {
		t.Errorf("constraint references %q, want users", constraint.ReferenceSchema.Table)
	}

	if len(constraint.ForeignKeys) != 1 || constraint.ForeignKeys[0].DBName != "user_id" {
		t.Errorf("unexpected foreign keys: %v", constraint.ForeignKeys)
	}

	if constraint.OnDelete != "CASCADE" {
		t.Errorf("OnDelete = %q, want CASCADE", constraint.OnDelete)
	}
}
