package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type storeFactory func(t *testing.T) Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore(Pair{})
		},
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json"))
		},
		"redis": func(t *testing.T) Store {
			mr, err := miniredis.Run()
			if err != nil {
				t.Fatalf("miniredis.Run failed: %v", err)
			}
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() {
				_ = rdb.Close()
				mr.Close()
			})
			return NewRedisStore(rdb, "", "")
		},
	}
}

func TestStoreReadEmpty(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			p, err := s.Read(context.Background())
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !p.IsEmpty() {
				t.Fatalf("expected empty pair, got %+v", p)
			}
		})
	}
}

func TestStoreWriteIsVisibleImmediately(t *testing.T) {
	ctx := context.Background()
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			if err := s.Write(ctx, Pair{Access: "a1", Refresh: "r1"}); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			p, err := s.Read(ctx)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if p != (Pair{Access: "a1", Refresh: "r1"}) {
				t.Fatalf("unexpected pair %+v", p)
			}
		})
	}
}

func TestStorePartialWriteKeepsOtherField(t *testing.T) {
	ctx := context.Background()
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			if err := s.Write(ctx, Pair{Access: "a1", Refresh: "r1"}); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := s.Write(ctx, Pair{Access: "a2"}); err != nil {
				t.Fatalf("partial Write failed: %v", err)
			}
			p, err := s.Read(ctx)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if p.Access != "a2" || p.Refresh != "r1" {
				t.Fatalf("partial write clobbered refresh token: %+v", p)
			}

			if err := s.Write(ctx, Pair{}); err != nil {
				t.Fatalf("empty Write failed: %v", err)
			}
			p, _ = s.Read(ctx)
			if p.Access != "a2" || p.Refresh != "r1" {
				t.Fatalf("empty write changed stored pair: %+v", p)
			}
		})
	}
}

func TestStoreReplaceDropsPreviousPair(t *testing.T) {
	ctx := context.Background()
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			if err := s.Write(ctx, Pair{Access: "aA", Refresh: "rA"}); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := s.Replace(ctx, Pair{Access: "aB"}); err != nil {
				t.Fatalf("Replace failed: %v", err)
			}
			p, err := s.Read(ctx)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if p != (Pair{Access: "aB"}) {
				t.Fatalf("previous refresh token survived replace: %+v", p)
			}

			if err := s.Replace(ctx, Pair{}); err != nil {
				t.Fatalf("empty Replace failed: %v", err)
			}
			if p, _ = s.Read(ctx); !p.IsEmpty() {
				t.Fatalf("expected empty pair after empty replace, got %+v", p)
			}
		})
	}
}

func TestStoreClearRemovesBoth(t *testing.T) {
	ctx := context.Background()
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			if err := s.Write(ctx, Pair{Access: "a1", Refresh: "r1"}); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			for i := 0; i < 2; i++ {
				if err := s.Clear(ctx); err != nil {
					t.Fatalf("Clear #%d failed: %v", i+1, err)
				}
			}
			p, err := s.Read(ctx)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if !p.IsEmpty() {
				t.Fatalf("expected empty pair after clear, got %+v", p)
			}
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	if err := NewFileStore(path).Write(ctx, Pair{Access: "a1", Refresh: "r1"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	p, err := NewFileStore(path).Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if p.Access != "a1" || p.Refresh != "r1" {
		t.Fatalf("unexpected pair after reopen %+v", p)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != filePerm {
		t.Fatalf("expected mode %o, got %o", filePerm, perm)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	s := NewFileStore(path)
	if _, err := s.Read(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("Clear of corrupt file failed: %v", err)
	}
	if p, err := s.Read(context.Background()); err != nil || !p.IsEmpty() {
		t.Fatalf("expected empty pair after clear, got %+v (%v)", p, err)
	}
}

func TestRedisStoreUsesVersionedFields(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, "ss", "laptop")
	if s.Key() != "ss:laptop" {
		t.Fatalf("unexpected key %q", s.Key())
	}
	if err := s.Write(context.Background(), Pair{Access: "a1"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := mr.HGet("ss:laptop", Keys.Access); got != "a1" {
		t.Fatalf("expected access under %q, got %q", Keys.Access, got)
	}
	if mr.Exists("ss:laptop") && mr.HGet("ss:laptop", Keys.Refresh) != "" {
		t.Fatal("refresh field must not be written when absent")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	s := NewRedisStore(rdb, "", "")
	mr.Close()

	if _, err := s.Read(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Read, got %v", err)
	}
	if err := s.Write(context.Background(), Pair{Access: "a"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Write, got %v", err)
	}
	if err := s.Clear(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Clear, got %v", err)
	}
}

func TestPairMerge(t *testing.T) {
	p := Pair{Access: "a", Refresh: "r"}.Merge(Pair{Refresh: "r2"})
	if p.Access != "a" || p.Refresh != "r2" {
		t.Fatalf("unexpected merge result %+v", p)
	}
	if !(Pair{Access: "a"}).HasAccess() || (Pair{Access: "a"}).HasRefresh() {
		t.Fatal("unexpected presence flags")
	}
}
