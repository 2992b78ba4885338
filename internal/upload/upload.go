// Package upload validates media selections and persists accepted files.
package upload

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrNoFile        = errors.New("no file selected")
	ErrMultipleFiles = errors.New("only one file can be selected at a time")
)

// Kind is the media family of a selected file.
type Kind string

const (
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindUnknown Kind = "unknown"
)

var videoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm"}
var audioExtensions = []string{".mp3", ".wav", ".aac", ".ogg", ".m4a"}

// AcceptedExtensions lists every allowed extension, video first.
func AcceptedExtensions() []string {
	out := make([]string, 0, len(videoExtensions)+len(audioExtensions))
	out = append(out, videoExtensions...)
	return append(out, audioExtensions...)
}

// Accept is the value for an <input type="file" accept="..."> attribute.
func Accept() string {
	return "video/*,audio/*," + strings.Join(AcceptedExtensions(), ",")
}

// KindOf classifies a file name by extension, case-insensitively.
func KindOf(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range videoExtensions {
		if e == ext {
			return KindVideo
		}
	}
	for _, e := range audioExtensions {
		if e == ext {
			return KindAudio
		}
	}
	return KindUnknown
}

// IsMediaFile reports whether name has an allowed extension.
func IsMediaFile(name string) bool {
	return KindOf(name) != KindUnknown
}

// Verdict is the outcome of checking one selected file.
type Verdict struct {
	Kind Kind `json:"kind"`
	// TypeMismatch flags a file whose extension is not allowed or whose
	// declared MIME family disagrees with it. It is advisory only.
	TypeMismatch bool `json:"type_mismatch"`
}

// Check classifies a file by name and declared content type. Content types
// without a family (empty, application/octet-stream) do not cause a
// mismatch on their own.
func Check(name, contentType string) Verdict {
	kind := KindOf(name)
	v := Verdict{Kind: kind, TypeMismatch: kind == KindUnknown}

	family := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(family, '/'); i >= 0 {
		family = family[:i]
	}
	switch family {
	case "video", "audio":
		if kind != KindUnknown && Kind(family) != kind {
			// Containers like .webm and .ogg legitimately carry either.
			if !ambiguousContainer(name) {
				v.TypeMismatch = true
			}
		}
	case "", "application":
	default:
		v.TypeMismatch = true
	}
	return v
}

func ambiguousContainer(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".webm", ".ogg", ".mp4", ".m4a":
		return true
	}
	return false
}

// Single enforces the single-file selection rule. It returns the only
// element of files, ErrNoFile for none and ErrMultipleFiles for more.
func Single[T any](files []T) (T, error) {
	var zero T
	switch len(files) {
	case 0:
		return zero, ErrNoFile
	case 1:
		return files[0], nil
	default:
		return zero, fmt.Errorf("%w: got %d", ErrMultipleFiles, len(files))
	}
}

// FormatSize renders a byte count for display, e.g. "1.5 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB", "TB"}
	i := 0
	div := int64(1)
	for i < len(sizes)-1 && bytes >= div*k {
		div *= k
		i++
	}
	v := math.Round(float64(bytes)/float64(div)*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizes[i]
}
