package prompt

import (
	"embed"
	"fmt"
	"path/filepath"

	"github.com/bz888/tsdr/internal/api/server/client"
)

//go:embed templates/*.txt
var templateFS embed.FS

const (
	Portuguese      = "pt"
	English         = "en"
	DefaultLanguage = Portuguese
)

var languages = []string{Portuguese, English}

// systemPrompts is filled once at init; unknown languages read the Portuguese entry.
var systemPrompts = make(map[string]string, len(languages))

func init() {
	for _, lang := range languages {
		filename := filepath.ToSlash(filepath.Join("templates", lang+".txt"))
		content, err := templateFS.ReadFile(filename)
		if err != nil {
			panic(fmt.Errorf("load system prompt %s: %w", lang, err))
		}
		systemPrompts[lang] = string(content)
	}
}

// Languages returns the codes that have their own system prompt.
func Languages() []string {
	out := make([]string, len(languages))
	copy(out, languages)
	return out
}

func Supported(language string) bool {
	_, ok := systemPrompts[language]
	return ok
}

// Normalize maps any code without a template to DefaultLanguage.
func Normalize(language string) string {
	if Supported(language) {
		return language
	}
	return DefaultLanguage
}

func SystemPrompt(language string) string {
	return systemPrompts[Normalize(language)]
}

// Compose builds the system + user pair sent to the completion provider.
// The input is passed through untouched.
func Compose(input, language string) []client.ChatMessage {
	return []client.ChatMessage{
		{Role: client.RoleSystem, Content: SystemPrompt(language)},
		{Role: client.RoleUser, Content: input},
	}
}
