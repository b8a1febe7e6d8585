package storage

import (
	"errors"
	"testing"

	"github.com/guildops/guildflow/internal/testutil"
)

func TestFSStore_RoundTrip(t *testing.T) {
	ctx := testutil.TestContext(t)
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	in := map[string]any{"events": []any{map[string]any{"type": "TERRITORY_WAR_EVENT"}}}
	if err := store.Upload(ctx, "calendar/2023/11/14/calendar.json.gz", in); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	var out map[string]any
	if err := store.Load(ctx, "calendar/2023/11/14/calendar.json.gz", &out); err != nil {
		t.Fatalf("Load: %v", err)
	}
	events, ok := out["events"].([]any)
	if !ok || len(events) != 1 {
		t.Fatalf("loaded blob = %v, want one event", out)
	}
}

func TestFSStore_LoadMissing(t *testing.T) {
	ctx := testutil.TestContext(t)
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	var out map[string]any
	err = store.Load(ctx, "nope/missing.json.gz", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load missing blob error = %v, want ErrNotFound", err)
	}
}

func TestFSStore_OverwriteSamePath(t *testing.T) {
	ctx := testutil.TestContext(t)
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	path := "g1/daily/2023/11/14/guild.json.gz"
	if err := store.Upload(ctx, path, map[string]int{"run": 1}); err != nil {
		t.Fatalf("first Upload: %v", err)
	}
	if err := store.Upload(ctx, path, map[string]int{"run": 2}); err != nil {
		t.Fatalf("second Upload: %v", err)
	}

	var out map[string]int
	if err := store.Load(ctx, path, &out); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out["run"] != 2 {
		t.Errorf("blob after rerun = %v, want the second write", out)
	}
}

func TestFSStore_Exists(t *testing.T) {
	ctx := testutil.TestContext(t)
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	ok, err := store.Exists(ctx, "a/b.json.gz")
	if err != nil || ok {
		t.Fatalf("Exists before upload = (%v, %v), want (false, nil)", ok, err)
	}

	if err := store.Upload(ctx, "a/b.json.gz", map[string]int{}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	ok, err = store.Exists(ctx, "a/b.json.gz")
	if err != nil || !ok {
		t.Errorf("Exists after upload = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestFSStore_RejectsEscapingPaths(t *testing.T) {
	ctx := testutil.TestContext(t)
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	for _, path := range []string{"../outside.json.gz", "/abs/path.json.gz", ""} {
		if err := store.Upload(ctx, path, map[string]int{}); err == nil {
			t.Errorf("Upload(%q) succeeded, want error", path)
		}
	}
}
