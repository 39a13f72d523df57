package artifact

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fsStore, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fsStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			payload := []byte("dataset bytes")
			info, err := store.Put(ctx, "cps/2020.dataset", payload, PutOptions{
				ContentType: "application/octet-stream",
				Metadata:    map[string]string{"year": "2020"},
			})
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if info.Size != int64(len(payload)) {
				t.Fatalf("unexpected size %d", info.Size)
			}
			if info.ETag == "" {
				t.Fatalf("missing etag")
			}
			got, body, err := store.Get(ctx, "cps/2020.dataset")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !bytes.Equal(body, payload) {
				t.Fatalf("payload mismatch")
			}
			if got.ContentType != "application/octet-stream" {
				t.Fatalf("content type lost: %q", got.ContentType)
			}
			if got.Metadata["year"] != "2020" {
				t.Fatalf("metadata lost: %v", got.Metadata)
			}
			head, err := store.Head(ctx, "cps/2020.dataset")
			if err != nil {
				t.Fatalf("Head: %v", err)
			}
			if head.ETag != info.ETag {
				t.Fatalf("etag drift between Put and Head")
			}
		})
	}
}

func TestStorePutIsCreateOnly(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Put(ctx, "k", []byte("a"), PutOptions{}); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if _, err := store.Put(ctx, "k", []byte("b"), PutOptions{}); err == nil {
				t.Fatalf("expected second Put to fail")
			}
		})
	}
}

func TestStoreDeleteThenPut(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Put(ctx, "k", []byte("a"), PutOptions{}); err != nil {
				t.Fatalf("Put: %v", err)
			}
			existed, err := store.Delete(ctx, "k")
			if err != nil || !existed {
				t.Fatalf("Delete: existed=%v err=%v", existed, err)
			}
			existed, err = store.Delete(ctx, "k")
			if err != nil || existed {
				t.Fatalf("second Delete: existed=%v err=%v", existed, err)
			}
			if _, err := store.Put(ctx, "k", []byte("b"), PutOptions{}); err != nil {
				t.Fatalf("Put after Delete: %v", err)
			}
		})
	}
}

func TestStoreMissingKey(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, _, err := store.Get(ctx, "absent"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get absent: %v", err)
			}
			if _, err := store.Head(ctx, "absent"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Head absent: %v", err)
			}
		})
	}
}

func TestStoreListPrefix(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, key := range []string{"cps/2020.dataset", "cps/2021.dataset", "other/x"} {
				if _, err := store.Put(ctx, key, []byte(key), PutOptions{}); err != nil {
					t.Fatalf("Put %s: %v", key, err)
				}
			}
			infos, err := store.List(ctx, "cps/")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(infos) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(infos))
			}
			if infos[0].Key != "cps/2020.dataset" || infos[1].Key != "cps/2021.dataset" {
				t.Fatalf("unexpected order: %v %v", infos[0].Key, infos[1].Key)
			}
		})
	}
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	for _, key := range []string{"", "../escape", "/abs", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, []byte("x"), PutOptions{}); err == nil {
			t.Fatalf("expected rejection of key %q", key)
		}
	}
}

func TestFilesystemLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystem(root)
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	if _, err := store.Put(context.Background(), "cps/2020.dataset", []byte("x"), PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(root, "cps"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "2020.dataset" && e.Name() != "2020.dataset.meta" {
			t.Fatalf("unexpected leftover file %s", e.Name())
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "tape"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
