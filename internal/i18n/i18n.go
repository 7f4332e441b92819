// Package i18n holds the user-facing strings of the terminal UI and the
// locale heuristics used to pick a default language.
package i18n

import (
	"os"
	"strings"

	"github.com/bz888/tsdr/pkg/errors"
)

const (
	Portuguese = "pt"
	English    = "en"
)

type Messages struct {
	Tagline         string
	Placeholder     string
	ButtonText      string
	ResultTitle     string
	Loading         string
	Error           string
	ErrorValidation string
	Footer          string
}

var dictionary = map[string]Messages{
	Portuguese: {
		Tagline:         "Transforme textos simples em textos detalhados comicamente longos.",
		Placeholder:     "ex: vou dormir",
		ButtonText:      "Expandir",
		ResultTitle:     "Resultado expandido:",
		Loading:         "Expandindo...",
		Error:           "Erro ao gerar texto expandido. Tente novamente.",
		ErrorValidation: "Digite um texto antes de expandir.",
		Footer:          "Nem idéia do que colocar aqui •",
	},
	English: {
		Tagline:         "Transform simple texts into comically long detailed texts.",
		Placeholder:     "e.g.: going to sleep",
		ButtonText:      "Expand",
		ResultTitle:     "Expanded result:",
		Loading:         "Expanding...",
		Error:           "Error generating expanded text. Please try again.",
		ErrorValidation: "Type some text before expanding.",
		Footer:          "Idk what to put here •",
	},
}

func Supported(lang string) bool {
	_, ok := dictionary[lang]
	return ok
}

// For returns the strings for lang, Portuguese when lang is unknown.
func For(lang string) Messages {
	if m, ok := dictionary[lang]; ok {
		return m
	}
	return dictionary[Portuguese]
}

// ErrorFor localizes a server error code.
func (m Messages) ErrorFor(code string) string {
	if code == errors.CodeValidation {
		return m.ErrorValidation
	}
	return m.Error
}

func Toggle(lang string) string {
	if lang == Portuguese {
		return English
	}
	return Portuguese
}

// Detect guesses a language from a locale string such as "pt_BR.UTF-8" or "en-US".
// Anything that does not start with "pt" is treated as English.
func Detect(locale string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(locale)), "pt") {
		return Portuguese
	}
	return English
}

// SystemLocale reads the locale the same way libc does: LC_ALL, then
// LC_MESSAGES, then LANG.
func SystemLocale() string {
	return localeFrom(os.Getenv)
}

func localeFrom(getenv func(string) string) string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := getenv(key); v != "" {
			return v
		}
	}
	return ""
}
