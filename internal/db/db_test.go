package db

import "testing"

func TestFoldFunc(t *testing.T) {
	db := NewTestDB(t)

	tests := map[string]string{
		"Črna":   "črna",
		"ÄRMEL":  "ärmel",
		"Keys":   "keys",
		"plain":  "plain",
		"ŽIČNIK": "žičnik",
	}
	for in, want := range tests {
		var got string
		if err := db.Get(&got, `SELECT `+FoldFunc+`(?)`, in); err != nil {
			t.Fatalf("fold(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("fold(%q) = %q, want %q", in, got, want)
		}
	}

	var isNull bool
	if err := db.Get(&isNull, `SELECT `+FoldFunc+`(NULL) IS NULL`); err != nil {
		t.Fatalf("fold(NULL): %v", err)
	}
	if !isNull {
		t.Error("expected fold(NULL) to stay NULL")
	}
}

func TestNamedQueryRebinding(t *testing.T) {
	db := NewTestDB(t)

	row := struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}{"greeting", "živjo"}
	if _, err := db.NamedExec(`INSERT INTO settings (key, value) VALUES (:key, :value)`, row); err != nil {
		t.Fatalf("NamedExec: %v", err)
	}

	var got string
	if err := db.Get(&got, `SELECT value FROM settings WHERE key = ?`, "greeting"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "živjo" {
		t.Errorf("expected stored value, got %q", got)
	}
}
