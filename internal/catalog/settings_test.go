package catalog

import (
	"errors"
	"testing"
)

func TestSetAndGetSetting(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	if err := store.SetSetting("scanner.last_run./movies", `{"files_scanned":10}`); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	got, err := store.GetSetting("scanner.last_run./movies")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != `{"files_scanned":10}` {
		t.Errorf("GetSetting = %q, want the stored value", got)
	}
}

func TestSetSetting_UpsertsOnConflict(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	if err := store.SetSetting("key", "first"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := store.SetSetting("key", "second"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	got, err := store.GetSetting("key")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != "second" {
		t.Errorf("GetSetting = %q, want second (upsert should overwrite)", got)
	}
}

func TestGetSetting_NotFound(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	_, err := store.GetSetting("never-set")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
