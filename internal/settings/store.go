package settings

import "sync"

// KeyLastUsedLanguage stores the code picked on the last submitted upload.
const KeyLastUsedLanguage = "last_used_language"

// Store is a durable key/value settings store. *db.Database implements it.
type Store interface {
	// GetSetting returns the stored value, or defaultVal when the key is unset.
	GetSetting(key, defaultVal string) string
	// SetSetting upserts a value.
	SetSetting(key, value string) error
}

// MemoryStore is an in-process Store used by the terminal preview and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) GetSetting(key, defaultVal string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.values[key]; ok {
		return v
	}
	return defaultVal
}

func (m *MemoryStore) SetSetting(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
