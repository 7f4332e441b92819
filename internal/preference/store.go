// Package preference persists small client-side settings such as the UI language.
package preference

import (
	"context"
	"sync"

	"github.com/bz888/tsdr/internal/i18n"
)

// LanguageKey is the key the UI language is stored under.
const LanguageKey = "lang"

type Store interface {
	// Get returns the stored value and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// LoadLanguage returns the stored UI language. A missing or unsupported value
// is replaced by a guess from locale, which is then persisted.
func LoadLanguage(ctx context.Context, store Store, locale string) (string, error) {
	lang, ok, err := store.Get(ctx, LanguageKey)
	if err != nil {
		return i18n.Detect(locale), err
	}
	if ok && i18n.Supported(lang) {
		return lang, nil
	}

	lang = i18n.Detect(locale)
	if err := store.Set(ctx, LanguageKey, lang); err != nil {
		return lang, err
	}
	return lang, nil
}

func SaveLanguage(ctx context.Context, store Store, lang string) error {
	return store.Set(ctx, LanguageKey, lang)
}
