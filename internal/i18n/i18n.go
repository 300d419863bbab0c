// Package i18n translates user-facing messages. Message keys are the
// en-US source strings.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the source locale of every message key.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle holds the messages of every loaded locale.
type Bundle struct {
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

// LoadEmbedded loads the locales shipped with the binary.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedLocales)
}

// LoadFromFS loads locales/*.yaml from fsys. The base locale must be present.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	sort.Strings(paths)

	b := &Bundle{builder: catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale)))}
	hasBase := false

	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", path, err)
		}
		var f localeFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", path, err)
		}
		tag, err := language.Parse(strings.TrimSpace(f.Locale))
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", path, err)
		}
		for key, msg := range f.Messages {
			if err := b.builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("locale %s key %q: %w", path, key, err)
			}
		}
		if tag.String() == BaseLocale {
			hasBase = true
		}
		b.tags = append(b.tags, tag)
	}

	if !hasBase {
		return nil, fmt.Errorf("base locale %s is not defined", BaseLocale)
	}

	// The matcher prefers its first tag on no match.
	sort.SliceStable(b.tags, func(i, j int) bool { return b.tags[i].String() == BaseLocale })
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Locales returns the loaded locale identifiers, base locale first.
func (b *Bundle) Locales() []string {
	out := make([]string, len(b.tags))
	for i, t := range b.tags {
		out[i] = t.String()
	}
	return out
}

// Translator renders messages for one locale.
type Translator struct {
	locale  language.Tag
	printer *message.Printer
}

// Translator returns a translator for the best match of locale. An unknown
// or malformed locale falls back to the base locale.
func (b *Bundle) Translator(locale string) *Translator {
	_, idx, _ := b.matcher.Match(language.Make(locale))
	tag := b.tags[idx]
	return &Translator{
		locale:  tag,
		printer: message.NewPrinter(tag, message.Catalog(b.builder)),
	}
}

// Locale returns the tag the translator renders for.
func (t *Translator) Locale() string {
	return t.locale.String()
}

// Trans translates key and formats it with args.
func (t *Translator) Trans(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}
