// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sequentech/braid/types"
)

// FileCache persists pending artifact bytes under a root directory,
// one file per (cfgHash, key) pair, so a restarted trustee does not
// redraw in-flight randomness across a crash — the optional persisted
// state spec.md §6 describes as implementation-defined layout. It is
// safe for concurrent use within a single process; cross-process
// access to the same directory is not.
type FileCache struct {
	Dir string
}

// NewFileCache returns a FileCache rooted at dir, creating it if
// necessary.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("action: creating cache directory %s: %w", dir, err)
	}
	return &FileCache{Dir: dir}, nil
}

func (c *FileCache) path(cfgHash types.Hash, key string) string {
	sum := sha256.Sum256([]byte(cfgHash.String() + "|" + key))
	return filepath.Join(c.Dir, hex.EncodeToString(sum[:])+".bin")
}

func (c *FileCache) Save(cfgHash types.Hash, key string, data []byte) error {
	tmp := c.path(cfgHash, key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("action: writing cache entry: %w", err)
	}
	return os.Rename(tmp, c.path(cfgHash, key))
}

func (c *FileCache) Load(cfgHash types.Hash, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(c.path(cfgHash, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("action: reading cache entry: %w", err)
	}
	return b, true, nil
}

var _ Cache = (*FileCache)(nil)
