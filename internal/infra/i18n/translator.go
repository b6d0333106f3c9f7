package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// DefaultLang is used when the buyer's language tag matches no supported locale.
const DefaultLang = "en"

// Supported lists the locale files shipped under locales/.
var Supported = []string{"en", "it"}

// requiredKeys must exist in every locale table. Validated at load time so a
// missing translation fails startup instead of a buyer-facing lookup.
var requiredKeys = []string{
	"offer_expired",
	"offer_depleted",
	"successful_payment",
	"buy_now",
	"available",
}

// Bundle holds the key→string table for every supported locale.
type Bundle struct {
	tables map[string]map[string]string
}

// NewBundle loads and validates all supported locale files from fsys.
func NewBundle(fsys fs.FS) (*Bundle, error) {
	tables := make(map[string]map[string]string, len(Supported))
	for _, lang := range Supported {
		filePath := path.Join("locales", fmt.Sprintf("%s.yaml", lang))
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("read translation file %s: %w", filePath, err)
		}
		var table map[string]string
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse translation file %s: %w", filePath, err)
		}
		for _, key := range requiredKeys {
			if _, ok := table[key]; !ok {
				return nil, fmt.Errorf("locale %s: missing key %q", lang, key)
			}
		}
		tables[lang] = table
	}
	return &Bundle{tables: tables}, nil
}

// T translates key for lang, falling back to the default locale table and
// finally to the key itself.
func (b *Bundle) T(lang, key string, args ...interface{}) string {
	table, ok := b.tables[lang]
	if !ok {
		table = b.tables[DefaultLang]
	}
	format, ok := table[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Resolve maps a Telegram language tag like "it-IT" onto a supported locale.
func (b *Bundle) Resolve(tag string) string { return Resolve(tag) }

// Resolve maps a Telegram language tag like "it-IT" onto a supported locale,
// defaulting when unrecognized.
func Resolve(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, lang := range Supported {
		if tag == lang || strings.HasPrefix(tag, lang+"-") {
			return lang
		}
	}
	return DefaultLang
}
