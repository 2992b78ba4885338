package catalog

import (
	"github.com/idozri/vidto-listen/internal/logging"
	"github.com/idozri/vidto-listen/internal/settings"
)

// Preferences reads and writes the last used language through an injected
// settings store.
type Preferences struct {
	store  settings.Store
	logger *logging.Logger
}

func NewPreferences(store settings.Store, logger *logging.Logger) *Preferences {
	return &Preferences{store: store, logger: logger}
}

// LastUsedLanguage returns the persisted code, or AutoDetect when unset.
func (p *Preferences) LastUsedLanguage() string {
	v := p.store.GetSetting(settings.KeyLastUsedLanguage, "")
	if v == "" {
		return AutoDetect
	}
	return v
}

// SetLastUsedLanguage persists code. Failures are logged and otherwise
// ignored; the preference is a convenience only.
func (p *Preferences) SetLastUsedLanguage(code string) {
	if err := p.store.SetSetting(settings.KeyLastUsedLanguage, code); err != nil {
		p.logger.Warnw("failed to persist last used language", "code", code, "error", err)
	}
}
