// Package catalog holds the static table of languages offered by the
// language picker, plus lookup, search and suggestion helpers.
package catalog

import "strings"

// AutoDetect is the sentinel code meaning "let the extractor detect the
// spoken language". It is intentionally not part of the table.
const AutoDetect = "auto"

// Language is a catalog entry.
type Language struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Flag    string   `json:"flag,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

// DefaultSuggestions are the quick-select codes shown next to the picker.
var DefaultSuggestions = []string{"en", "pt", "es", "fr", "de"}

var languages = []Language{
	{Code: "en", Name: "English", Flag: "🇺🇸", Aliases: []string{"en-US", "en-GB"}},
	{Code: "pt", Name: "Portuguese", Flag: "🇧🇷", Aliases: []string{"pt-BR", "pt-PT"}},
	{Code: "es", Name: "Spanish", Flag: "🇪🇸", Aliases: []string{"es-ES", "es-MX"}},
	{Code: "fr", Name: "French", Flag: "🇫🇷", Aliases: []string{"fr-FR", "fr-CA"}},
	{Code: "de", Name: "German", Flag: "🇩🇪"},
	{Code: "it", Name: "Italian", Flag: "🇮🇹"},
	{Code: "nl", Name: "Dutch", Flag: "🇳🇱"},
	{Code: "sv", Name: "Swedish", Flag: "🇸🇪"},
	{Code: "no", Name: "Norwegian", Flag: "🇳🇴", Aliases: []string{"nb", "nn"}},
	{Code: "da", Name: "Danish", Flag: "🇩🇰"},
	{Code: "fi", Name: "Finnish", Flag: "🇫🇮"},
	{Code: "pl", Name: "Polish", Flag: "🇵🇱"},
	{Code: "cs", Name: "Czech", Flag: "🇨🇿"},
	{Code: "sk", Name: "Slovak", Flag: "🇸🇰"},
	{Code: "hu", Name: "Hungarian", Flag: "🇭🇺"},
	{Code: "ro", Name: "Romanian", Flag: "🇷🇴"},
	{Code: "bg", Name: "Bulgarian", Flag: "🇧🇬"},
	{Code: "el", Name: "Greek", Flag: "🇬🇷"},
	{Code: "ru", Name: "Russian", Flag: "🇷🇺"},
	{Code: "uk", Name: "Ukrainian", Flag: "🇺🇦"},
	{Code: "tr", Name: "Turkish", Flag: "🇹🇷"},
	{Code: "ar", Name: "Arabic", Flag: "🇸🇦"},
	{Code: "he", Name: "Hebrew", Flag: "🇮🇱", Aliases: []string{"iw"}},
	{Code: "fa", Name: "Persian", Flag: "🇮🇷"},
	{Code: "hi", Name: "Hindi", Flag: "🇮🇳"},
	{Code: "bn", Name: "Bengali", Flag: "🇧🇩"},
	{Code: "ur", Name: "Urdu", Flag: "🇵🇰"},
	{Code: "th", Name: "Thai", Flag: "🇹🇭"},
	{Code: "vi", Name: "Vietnamese", Flag: "🇻🇳"},
	{Code: "id", Name: "Indonesian", Flag: "🇮🇩", Aliases: []string{"in"}},
	{Code: "ms", Name: "Malay", Flag: "🇲🇾"},
	{Code: "tl", Name: "Filipino", Flag: "🇵🇭", Aliases: []string{"fil"}},
	{Code: "zh", Name: "Chinese", Flag: "🇨🇳", Aliases: []string{"zh-CN", "zh-TW", "cmn"}},
	{Code: "ja", Name: "Japanese", Flag: "🇯🇵"},
	{Code: "ko", Name: "Korean", Flag: "🇰🇷"},
	{Code: "sw", Name: "Swahili", Flag: "🇰🇪"},
	{Code: "ca", Name: "Catalan"},
	{Code: "eu", Name: "Basque"},
	{Code: "gl", Name: "Galician"},
	{Code: "la", Name: "Latin"},
}

// All returns a copy of the catalog in display order.
func All() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Find looks up a language by its exact code. Matching is case-sensitive.
func Find(code string) (Language, bool) {
	for _, l := range languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// Normalize maps a code or alias (any case) to the canonical catalog code.
// The AutoDetect sentinel passes through unchanged.
func Normalize(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, AutoDetect) {
		return AutoDetect, true
	}
	for _, l := range languages {
		if strings.EqualFold(l.Code, code) {
			return l.Code, true
		}
		for _, a := range l.Aliases {
			if strings.EqualFold(a, code) {
				return l.Code, true
			}
		}
	}
	return "", false
}

// Search filters the catalog by a case-insensitive substring of the name or
// code. A blank query returns the whole catalog in order.
func Search(query string) []Language {
	if strings.TrimSpace(query) == "" {
		return All()
	}
	q := strings.ToLower(query)
	var out []Language
	for _, l := range languages {
		if strings.Contains(strings.ToLower(l.Name), q) || strings.Contains(strings.ToLower(l.Code), q) {
			out = append(out, l)
		}
	}
	return out
}

// Suggestions returns the quick-select list: the last used language first
// (unless it is AutoDetect), then DefaultSuggestions, de-duplicated. Codes
// that do not resolve are dropped.
func Suggestions(lastUsed string) []Language {
	codes := make([]string, 0, len(DefaultSuggestions)+1)
	if lastUsed != "" && lastUsed != AutoDetect {
		codes = append(codes, lastUsed)
	}
	codes = append(codes, DefaultSuggestions...)

	seen := make(map[string]bool, len(codes))
	var out []Language
	for _, c := range codes {
		if seen[c] {
			continue
		}
		seen[c] = true
		if l, ok := Find(c); ok {
			out = append(out, l)
		}
	}
	return out
}
