package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"polyglot-group-bot/internal/domain"
	"polyglot-group-bot/internal/domain/model"
	"polyglot-group-bot/internal/domain/ports/repository"
	"polyglot-group-bot/internal/infra/metrics"
	"polyglot-group-bot/internal/infra/security"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ repository.SubscriberStore = (*FileStore)(nil)

// FileStore keeps the registry as an encrypted JSON blob in a primary file
// and a byte-identical backup copy.
type FileStore struct {
	primary string
	backup  string
	sealer  security.Sealer
	log     *zerolog.Logger
}

func NewFileStore(primary, backup string, sealer security.Sealer, logger *zerolog.Logger) *FileStore {
	return &FileStore{
		primary: primary,
		backup:  backup,
		sealer:  sealer,
		log:     logger,
	}
}

func (s *FileStore) Paths() (primary, backup string) { return s.primary, s.backup }

// Load opens the primary file and falls back to the backup when the primary
// cannot be read, decrypted or parsed. Both failing is ErrStoreCorrupted.
func (s *FileStore) Load(ctx context.Context) (*model.Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reg, err := s.read(s.primary)
	if err == nil {
		metrics.SetSubscribers(reg.Len())
		return reg, nil
	}
	s.log.Warn().Err(err).Str("path", s.primary).Msg("primary subscriber store unusable; loading backup")
	metrics.IncStoreRecovery()

	reg, backupErr := s.read(s.backup)
	if backupErr != nil {
		return nil, fmt.Errorf("%w: primary: %v; backup: %v", domain.ErrStoreCorrupted, err, backupErr)
	}
	s.log.Info().Str("path", s.backup).Int("subscribers", reg.Len()).Msg("subscriber store recovered from backup")
	metrics.SetSubscribers(reg.Len())
	return reg, nil
}

// Persist seals reg into the primary file, then copies the primary's bytes
// to the backup. Each file is replaced atomically. When the backup write
// fails the previous primary is put back, so a failed Persist leaves both
// files as they were.
func (s *FileStore) Persist(ctx context.Context, reg *model.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sealed, err := s.Encode(reg)
	if err != nil {
		metrics.IncStorePersist("failed")
		return err
	}
	previous, err := os.ReadFile(s.primary)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		metrics.IncStorePersist("failed")
		return fmt.Errorf("read current primary store: %w", err)
	}
	hadPrimary := err == nil
	if err := writeFileAtomic(s.primary, sealed); err != nil {
		metrics.IncStorePersist("failed")
		return fmt.Errorf("write primary store: %w", err)
	}
	written, err := os.ReadFile(s.primary)
	if err != nil {
		metrics.IncStorePersist("failed")
		s.restorePrimary(previous, hadPrimary)
		return fmt.Errorf("read back primary store: %w", err)
	}
	if err := writeFileAtomic(s.backup, written); err != nil {
		metrics.IncStorePersist("failed")
		s.restorePrimary(previous, hadPrimary)
		return fmt.Errorf("write backup store: %w", err)
	}
	metrics.IncStorePersist("ok")
	metrics.SetSubscribers(reg.Len())
	s.log.Debug().Int("subscribers", reg.Len()).Msg("subscriber store persisted")
	return nil
}

// restorePrimary undoes a primary write whose backup copy failed.
func (s *FileStore) restorePrimary(previous []byte, existed bool) {
	var err error
	if existed {
		err = writeFileAtomic(s.primary, previous)
	} else {
		err = os.Remove(s.primary)
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", s.primary).Msg("failed to roll back primary subscriber store")
	}
}

// Encode renders the registry as indented JSON and seals it.
func (s *FileStore) Encode(reg *model.Registry) ([]byte, error) {
	plain, err := MarshalRegistry(reg)
	if err != nil {
		return nil, err
	}
	sealed, err := s.sealer.Seal(plain)
	if err != nil {
		return nil, fmt.Errorf("seal registry: %w", err)
	}
	return sealed, nil
}

// MarshalRegistry is the plaintext store format, also used for /list.
func MarshalRegistry(reg *model.Registry) ([]byte, error) {
	plain, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal registry: %w", err)
	}
	return plain, nil
}

// Decode opens a sealed blob and parses the registry inside.
func (s *FileStore) Decode(sealed []byte) (*model.Registry, error) {
	plain, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	if t := bytes.TrimSpace(plain); len(t) == 0 || t[0] != '{' {
		return nil, errors.New("parse: registry is not a JSON object")
	}
	reg := model.NewRegistry()
	dec := json.NewDecoder(bytes.NewReader(plain))
	if err := dec.Decode(reg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return reg, nil
}

func (s *FileStore) read(path string) (*model.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Decode(data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
