package localfs

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

const bundleVersion = 1

type bundle struct {
	Version int
	Store   domain.PassageStore
}

// Repository keeps the passage store in one file. Saves go to a temporary
// file first and are renamed over the old bundle, so readers never see a
// half-written index.
type Repository struct {
	path string
}

func New(path string) (*Repository, error) {
	if path == "" {
		path = "./data/index/passages.gob"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return &Repository{path: path}, nil
}

func (r *Repository) Save(_ context.Context, store *domain.PassageStore) error {
	if err := store.Validate(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".passages-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := gob.NewEncoder(tmp).Encode(bundle{Version: bundleVersion, Store: *store}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("publish bundle: %w", err)
	}
	return nil
}

func (r *Repository) Load(_ context.Context) (*domain.PassageStore, error) {
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.WrapError(domain.ErrIndexNotFound, "load passage bundle", err)
	}
	if err != nil {
		return nil, fmt.Errorf("open passage bundle: %w", err)
	}
	defer f.Close()

	var b bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, domain.WrapError(domain.ErrIndexMismatch, "decode passage bundle", err)
	}
	if b.Version != bundleVersion {
		return nil, domain.WrapError(domain.ErrIndexMismatch, "load passage bundle",
			fmt.Errorf("bundle version %d, want %d", b.Version, bundleVersion))
	}
	if err := b.Store.Validate(); err != nil {
		return nil, err
	}
	return &b.Store, nil
}
