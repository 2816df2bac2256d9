//go:build !integration

package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"polyglot-group-bot/internal/domain"
	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/infra/security"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	sealer, err := security.NewAESGCMSealer(bytes.Repeat([]byte{3}, 32))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	dir := t.TempDir()
	logger := zerolog.Nop()
	return NewFileStore(filepath.Join(dir, "subscribers.enc"), filepath.Join(dir, "subscribers.bak"), sealer, &logger)
}

func seedRegistry(t *testing.T) *model.Registry {
	t.Helper()
	reg := model.NewRegistry()
	for _, s := range []model.Subscriber{
		{Contact: "whatsapp:+15550000001", Name: "Alice", Lang: "en", Role: model.RoleSuper},
		{Contact: "whatsapp:+15550000002", Name: "Bob", Lang: "es", Role: model.RoleUser},
	} {
		if err := reg.Insert(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return reg
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should round-trip and leave primary and backup byte-identical", func(t *testing.T) {
		s := newTestStore(t)
		reg := seedRegistry(t)

		if err := s.Persist(ctx, reg); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
		primary, backup := s.Paths()
		p, _ := os.ReadFile(primary)
		b, _ := os.ReadFile(backup)
		if len(p) == 0 || !bytes.Equal(p, b) {
			t.Fatal("expected non-empty, byte-identical primary and backup")
		}
		if bytes.Contains(p, []byte("Alice")) {
			t.Fatal("store file is not encrypted")
		}

		loaded, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		got, want := loaded.All(), reg.All()
		if len(got) != len(want) {
			t.Fatalf("expected %d subscribers, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("subscriber %d: got %+v, want %+v", i, got[i], want[i])
			}
		}
		if c, ok := loaded.ContactByName("Bob"); !ok || c != "whatsapp:+15550000002" {
			t.Errorf("reverse index not rebuilt: %q %v", c, ok)
		}
	})

	t.Run("should recover from backup when primary is corrupted", func(t *testing.T) {
		s := newTestStore(t)
		if err := s.Persist(ctx, seedRegistry(t)); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
		primary, _ := s.Paths()
		if err := os.WriteFile(primary, []byte("garbage"), 0o600); err != nil {
			t.Fatal(err)
		}

		reg, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("expected recovery from backup, got %v", err)
		}
		if reg.Len() != 2 {
			t.Errorf("expected backup contents (2 subscribers), got %d", reg.Len())
		}
	})

	t.Run("should recover from backup when primary is missing", func(t *testing.T) {
		s := newTestStore(t)
		if err := s.Persist(ctx, seedRegistry(t)); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
		primary, _ := s.Paths()
		_ = os.Remove(primary)

		if _, err := s.Load(ctx); err != nil {
			t.Fatalf("expected recovery from backup, got %v", err)
		}
	})

	t.Run("should recover when primary decrypts to invalid JSON", func(t *testing.T) {
		s := newTestStore(t)
		if err := s.Persist(ctx, seedRegistry(t)); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
		bad, _ := s.sealer.Seal([]byte("{not json"))
		primary, _ := s.Paths()
		_ = os.WriteFile(primary, bad, 0o600)

		reg, err := s.Load(ctx)
		if err != nil || reg.Len() != 2 {
			t.Fatalf("expected backup contents, got %v, %v", reg, err)
		}
	})

	t.Run("should recover when primary decrypts to JSON null", func(t *testing.T) {
		s := newTestStore(t)
		if err := s.Persist(ctx, seedRegistry(t)); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
		null, _ := s.sealer.Seal([]byte("null"))
		primary, _ := s.Paths()
		_ = os.WriteFile(primary, null, 0o600)

		reg, err := s.Load(ctx)
		if err != nil || reg.Len() != 2 {
			t.Fatalf("expected backup contents, got %v, %v", reg, err)
		}
	})

	t.Run("should put the previous primary back when the backup write fails", func(t *testing.T) {
		sealer, _ := security.NewAESGCMSealer(bytes.Repeat([]byte{3}, 32))
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		logger := zerolog.Nop()
		primary := filepath.Join(dir, "subscribers.enc")
		good := NewFileStore(primary, filepath.Join(dir, "subscribers.bak"), sealer, &logger)
		if err := good.Persist(ctx, seedRegistry(t)); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
		before, _ := os.ReadFile(primary)

		// backup directory is a regular file, so every backup write fails
		broken := NewFileStore(primary, filepath.Join(blocker, "subscribers.bak"), sealer, &logger)
		next := seedRegistry(t)
		_ = next.Insert(model.Subscriber{Contact: "whatsapp:+15559990000", Name: "Maria", Lang: "es", Role: model.RoleUser})

		if err := broken.Persist(ctx, next); err == nil {
			t.Fatal("expected backup write error")
		}
		after, _ := os.ReadFile(primary)
		if !bytes.Equal(before, after) {
			t.Fatal("primary kept the failed mutation")
		}
		reg, err := good.Load(ctx)
		if err != nil || reg.Len() != 2 {
			t.Fatalf("expected the previous 2 subscribers, got %v, %v", reg, err)
		}
	})

	t.Run("should leave no primary behind when the first persist fails", func(t *testing.T) {
		sealer, _ := security.NewAESGCMSealer(bytes.Repeat([]byte{3}, 32))
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		_ = os.WriteFile(blocker, []byte("x"), 0o600)
		logger := zerolog.Nop()
		primary := filepath.Join(dir, "subscribers.enc")
		s := NewFileStore(primary, filepath.Join(blocker, "subscribers.bak"), sealer, &logger)

		if err := s.Persist(ctx, seedRegistry(t)); err == nil {
			t.Fatal("expected backup write error")
		}
		if _, err := os.Stat(primary); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected no primary, stat err = %v", err)
		}
	})

	t.Run("should fail fatally when both files are corrupted", func(t *testing.T) {
		s := newTestStore(t)
		primary, backup := s.Paths()
		_ = os.WriteFile(primary, []byte("garbage"), 0o600)
		_ = os.WriteFile(backup, []byte("more garbage"), 0o600)

		_, err := s.Load(ctx)
		if !errors.Is(err, domain.ErrStoreCorrupted) {
			t.Fatalf("expected ErrStoreCorrupted, got %v", err)
		}
	})

	t.Run("should not open a store sealed with another key", func(t *testing.T) {
		s := newTestStore(t)
		if err := s.Persist(ctx, seedRegistry(t)); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
		other, _ := security.NewAESGCMSealer(bytes.Repeat([]byte{4}, 32))
		primary, backup := s.Paths()
		logger := zerolog.Nop()
		wrongKey := NewFileStore(primary, backup, other, &logger)

		if _, err := wrongKey.Load(ctx); !errors.Is(err, domain.ErrStoreCorrupted) {
			t.Fatalf("expected ErrStoreCorrupted, got %v", err)
		}
	})
}
