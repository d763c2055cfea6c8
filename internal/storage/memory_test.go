package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	version, err := store.Put(ctx, "k1", []byte("v1"), 0, 0)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if version != 1 {
		t.Errorf("Put() version = %d, want 1", version)
	}

	rec, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(rec.Value) != "v1" {
		t.Errorf("Get() value = %q, want %q", rec.Value, "v1")
	}
	if rec.Version != 1 {
		t.Errorf("Get() version = %d, want 1", rec.Version)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreVersionCheck(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Put(ctx, "k1", []byte("v1"), 0, 0); err != nil {
		t.Fatalf("initial Put() error = %v", err)
	}

	tests := []struct {
		name            string
		expectedVersion int64
		wantConflict    bool
		wantVersion     int64
	}{
		{"create over existing", 0, true, 0},
		{"stale version", 99, true, 0},
		{"matching version", 1, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := store.Put(ctx, "k1", []byte("v2"), tt.expectedVersion, 0)
			if tt.wantConflict {
				if !errors.Is(err, ErrVersionConflict) {
					t.Fatalf("Put() error = %v, want ErrVersionConflict", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if version != tt.wantVersion {
				t.Errorf("Put() version = %d, want %d", version, tt.wantVersion)
			}
		})
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Put(ctx, "k1", []byte("v1"), 0, time.Millisecond); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}

	// An expired record does not block re-creation at version 0.
	version, err := store.Put(ctx, "k1", []byte("v2"), 0, 0)
	if err != nil {
		t.Fatalf("Put() after expiry error = %v", err)
	}
	if version != 1 {
		t.Errorf("Put() after expiry version = %d, want 1", version)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Put(ctx, "k1", []byte("v1"), 0, 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting a missing key is fine.
	if err := store.Delete(ctx, "k1"); err != nil {
		t.Errorf("Delete() on missing key error = %v", err)
	}
}
