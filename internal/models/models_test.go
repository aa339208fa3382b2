package models

import (
	"testing"
	"time"
)

func TestList(t *testing.T) {
	t.Run("NewList Defaults", func(t *testing.T) {
		list := NewList("l1", "", "Groceries", "")

		if list.Kind != KindCustom {
			t.Errorf("expected default kind custom, got %s", list.Kind)
		}
		if list.CreatedAt.IsZero() || list.UpdatedAt.IsZero() {
			t.Error("expected timestamps to be set")
		}
		if list.Deleted() {
			t.Error("new list should not be deleted")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		list := NewList("l1", "u1", "Groceries", KindShopping)
		if err := list.Validate(); err != nil {
			t.Errorf("valid list failed validation: %v", err)
		}

		list.Name = ""
		if err := list.Validate(); err == nil {
			t.Error("expected validation error for empty name")
		}
	})

	t.Run("ModifiedAt Falls Back To CreatedAt", func(t *testing.T) {
		created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		list := &List{ID: "l1", Name: "x", CreatedAt: created}

		if !list.ModifiedAt().Equal(created) {
			t.Errorf("expected ModifiedAt %v, got %v", created, list.ModifiedAt())
		}
	})
}

func TestListItem(t *testing.T) {
	t.Run("Complete Is Idempotent", func(t *testing.T) {
		item := NewItem("i1", "l1", "milk")

		item.Complete()
		if !item.Done || item.CompletedAt == nil {
			t.Fatal("expected item to be completed")
		}

		first := *item.CompletedAt
		item.Complete()
		if !item.CompletedAt.Equal(first) {
			t.Error("second Complete should not move the completion time")
		}
	})

	t.Run("Validate Requires ListID", func(t *testing.T) {
		item := NewItem("i1", "", "milk")
		if err := item.Validate(); err == nil {
			t.Error("expected validation error for missing list id")
		}
	})
}

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		value   string
		want    MigrationStrategy
		wantErr bool
	}{
		{"", IntelligentMerge, false},
		{"merge", IntelligentMerge, false},
		{"intelligent", IntelligentMerge, false},
		{"replace-local", ReplaceLocalWithCloud, false},
		{"replace-cloud", ReplaceCloudWithLocal, false},
		{"bogus", IntelligentMerge, true},
	}

	for _, tc := range cases {
		t.Run("value "+tc.value, func(t *testing.T) {
			got, err := ParseStrategy(tc.value)
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseStrategy(%q) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if LocalFirst.String() != "local-first" || CloudFirst.String() != "cloud-first" {
		t.Error("unexpected mode strings")
	}
}
