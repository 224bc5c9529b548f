package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	mu         sync.RWMutex
	translator *i18n.Localizer
)

// Init builds the localizer for locale. An empty locale is taken from the
// environment (LC_ALL, LC_MESSAGES, LANG) and English is the fallback.
func Init(locale string) (*i18n.Localizer, error) {
	if locale == "" {
		locale = detectLocale()
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read embedded locales: %w", err)
	}
	for _, entry := range entries {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+entry.Name()); err != nil {
			return nil, fmt.Errorf("load locale %s: %w", entry.Name(), err)
		}
	}

	loc := i18n.NewLocalizer(bundle, locale, language.English.String())
	mu.Lock()
	translator = loc
	mu.Unlock()
	return loc, nil
}

// T returns the message for id in the current locale, or id itself when it
// is unknown.
func T(id string) string {
	mu.RLock()
	loc := translator
	mu.RUnlock()
	if loc == nil {
		var err error
		if loc, err = Init(""); err != nil {
			return id
		}
	}

	msg, err := loc.Localize(&i18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return id
	}
	return msg
}

func detectLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if tag, ok := normalizeLocale(os.Getenv(key)); ok {
			return tag
		}
	}
	return language.English.String()
}

// normalizeLocale turns POSIX values such as "zh_CN.UTF-8" into BCP 47 tags.
func normalizeLocale(value string) (string, bool) {
	value, _, _ = strings.Cut(value, ".")
	value, _, _ = strings.Cut(value, "@")
	if value == "" || value == "C" || value == "POSIX" {
		return "", false
	}
	tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return "", false
	}
	return tag.String(), true
}
