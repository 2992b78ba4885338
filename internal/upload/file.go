package upload

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/idozri/vidto-listen/internal/storage"
)

// File is an accepted media selection as handed to the session.
type File struct {
	ID          string  `json:"id"`
	Fingerprint string  `json:"fingerprint,omitempty"`
	Name        string  `json:"name"`
	Size        int64   `json:"size"`
	SizeLabel   string  `json:"size_label"`
	ContentType string  `json:"content_type"`
	Kind        Kind    `json:"kind"`
	Mismatch    bool    `json:"type_mismatch"`
	Duration    float64 `json:"duration,omitempty"`
	Path        string  `json:"-"`
}

// Receive checks and stores one selected file. A type mismatch is recorded
// on the returned File; it never rejects the file.
func Receive(store *storage.Store, name, contentType string, r io.Reader) (*File, error) {
	verdict := Check(name, contentType)
	st, err := store.Save(name, r)
	if err != nil {
		return nil, err
	}
	return &File{
		ID:          st.ID,
		Fingerprint: st.Fingerprint,
		Name:        name,
		Size:        st.Size,
		SizeLabel:   FormatSize(st.Size),
		ContentType: contentType,
		Kind:        verdict.Kind,
		Mismatch:    verdict.TypeMismatch,
		Path:        st.Path,
	}, nil
}

// Local describes a file already on disk without copying it into a store.
// The content type is guessed from the extension.
func Local(path string) (*File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	verdict := Check(name, contentType)
	return &File{
		ID:          uuid.New().String(),
		Name:        name,
		Size:        fi.Size(),
		SizeLabel:   FormatSize(fi.Size()),
		ContentType: contentType,
		Kind:        verdict.Kind,
		Mismatch:    verdict.TypeMismatch,
		Path:        path,
	}, nil
}
