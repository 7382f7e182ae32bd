package asset

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "assets.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// exercise runs the same contract against any Service.
func exercise(t *testing.T, s Service) {
	ctx := context.Background()

	id, err := s.Store(ctx, &Asset{Name: "tile", Type: TypeMapTile, ContentType: "image/png", Data: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("Store returned a nil id")
	}

	data, err := s.GetData(ctx, id)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if string(data) != "\x01\x02\x03" {
		t.Errorf("GetData = %v", data)
	}

	got, err := s.UpdateContent(ctx, id, []byte{9})
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if got != id {
		t.Errorf("UpdateContent id = %s, want %s", got, id)
	}
	data, _ = s.GetData(ctx, id)
	if len(data) != 1 || data[0] != 9 {
		t.Errorf("after update GetData = %v", data)
	}

	missing := uuid.New()
	if _, err := s.GetData(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetData(missing) = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateContent(ctx, missing, []byte{1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateContent(missing) = %v, want ErrNotFound", err)
	}

	fixed := uuid.New()
	if id, err := s.Store(ctx, &Asset{ID: fixed, Data: []byte("x")}); err != nil || id != fixed {
		t.Errorf("Store with id = %s, %v", id, err)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	exercise(t, openTestStore(t))
}

func TestSQLiteStore_GetAndCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Store(ctx, &Asset{Name: "terrain", Description: "region tile", Type: TypeMapTile, Temporary: true, Data: []byte("png")})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if _, err := s.Store(ctx, &Asset{Name: "grass", Type: TypeTexture, Data: []byte("tex")}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a.Name != "terrain" || a.Description != "region tile" || a.Type != TypeMapTile || !a.Temporary {
		t.Errorf("unexpected asset %+v", a)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt not restored")
	}

	n, err := s.Count(ctx, TypeMapTile)
	if err != nil || n != 1 {
		t.Errorf("Count(maptile) = %d, %v", n, err)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "assets.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	id, err := s.Store(context.Background(), &Asset{Data: []byte("keep")})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	data, err := s.GetData(context.Background(), id)
	if err != nil || string(data) != "keep" {
		t.Errorf("after reopen GetData = %q, %v", data, err)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Error("expected error for empty path")
	}
}
