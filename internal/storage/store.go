package storage

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Stored describes a file written by Store.Save.
type Stored struct {
	ID          string `json:"id"`
	Path        string `json:"-"`
	Size        int64  `json:"size"`
	Fingerprint string `json:"fingerprint"`
}

// Store keeps uploaded media under a single directory, one file per upload,
// named by a generated ID plus the original extension.
type Store struct {
	basePath string
}

// NewStore creates basePath if needed.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// Save streams r to disk and fingerprints the content with BLAKE2b-256.
func (s *Store) Save(name string, r io.Reader) (*Stored, error) {
	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(name))
	path, err := s.resolve(id + ext)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}

	h, _ := blake2b.New256(nil)
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &Stored{
		ID:          id,
		Path:        path,
		Size:        n,
		Fingerprint: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if _, err := s.resolve(filepath.Base(path)); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Purge removes every file left in the store, e.g. uploads orphaned by a
// previous run whose sessions no longer exist. It returns how many files
// were removed.
func (s *Store) Purge() (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		// Skip hidden files and directories
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := os.Remove(filepath.Join(s.basePath, entry.Name())); err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}

// resolve joins name onto the base path and rejects anything escaping it.
func (s *Store) resolve(name string) (string, error) {
	fullPath := filepath.Join(s.basePath, name)

	// Prevent path traversal
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", os.ErrPermission
	}
	return fullPath, nil
}
