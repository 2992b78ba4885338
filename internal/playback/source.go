package playback

import "sync"

// Source is a playable media resource: the URL handed to the element plus
// the release hook that frees whatever backs it.
type Source struct {
	URL string

	once    sync.Once
	release func() error
	err     error
}

// NewSource returns a source whose Release calls release exactly once.
func NewSource(url string, release func() error) *Source {
	return &Source{URL: url, release: release}
}

// Release frees the resource. Repeated calls return the first result.
func (s *Source) Release() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		if s.release != nil {
			s.err = s.release()
		}
	})
	return s.err
}
