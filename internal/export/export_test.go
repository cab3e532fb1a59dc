package export

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kittclouds/keepmem/internal/audit"
	"github.com/kittclouds/keepmem/internal/clock"
	"github.com/kittclouds/keepmem/internal/store"
	"github.com/stretchr/testify/require"
)

func TestExportWritesOneLinePerCardWithRevisions(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := clock.NowString()
	require.NoError(t, db.InsertCard(ctx, store.NewCard{
		CardID: "a", Title: "T", Summary: "S", NoteType: "PERMANENT", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, db.AddRevision(ctx, "a", `{"cardId":"a"}`, "CREATE", now))

	svc := New(db, audit.New(db))
	dest := filepath.Join(t.TempDir(), "out.jsonl")
	path, err := svc.Export(ctx, dest)
	require.NoError(t, err)
	require.Equal(t, dest, path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines int
	for scanner.Scan() {
		lines++
		var rec exportRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		require.Equal(t, "a", rec.Card.CardID)
		require.Len(t, rec.Revisions, 1)
	}
	require.Equal(t, 1, lines)
}

func TestExportDefaultsToHomeDirectory(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	home := t.TempDir()
	t.Setenv("HOME", home)

	svc := New(db, audit.New(db))
	path, err := svc.Export(ctx, "")
	require.NoError(t, err)
	require.Contains(t, path, home)
	require.Contains(t, filepath.Base(path), "memory-export-")
}
