// Package i18n loads the message catalogs and negotiates the request locale.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Args fills {name} placeholders.
type Args map[string]any

// Bundle holds flattened catalogs keyed by base language ("en", "es").
type Bundle struct {
	def      string
	messages map[string]map[string]string
	langs    []string
	matcher  language.Matcher
}

// Load reads the embedded catalogs.  def must be one of them.
func Load(def string) (*Bundle, error) {
	return LoadFS(localeFS, "locales", def)
}

// LoadFS reads every <lang>.yaml under dir of fsys.
func LoadFS(fsys fs.FS, dir, def string) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	b := &Bundle{def: def, messages: map[string]map[string]string{}}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		lang := strings.TrimSuffix(e.Name(), ".yaml")
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("locale %s: %w", lang, err)
		}
		flat := map[string]string{}
		flatten("", tree, flat)
		b.messages[lang] = flat
	}
	if _, ok := b.messages[def]; !ok {
		return nil, fmt.Errorf("default locale %q has no catalog", def)
	}

	// The default goes first so the matcher falls back to it.
	b.langs = append(b.langs, def)
	others := make([]string, 0, len(b.messages))
	for lang := range b.messages {
		if lang != def {
			others = append(others, lang)
		}
	}
	sort.Strings(others)
	b.langs = append(b.langs, others...)
	tags := make([]language.Tag, len(b.langs))
	for i, l := range b.langs {
		tags[i] = language.Make(l)
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flatten(key, t, out)
		case string:
			out[key] = t
		default:
			out[key] = fmt.Sprint(t)
		}
	}
}

// Default is the fallback locale.
func (b *Bundle) Default() string { return b.def }

// Languages lists the shipped locales, default first.
func (b *Bundle) Languages() []string { return append([]string(nil), b.langs...) }

// Supported reports whether lang has a catalog.
func (b *Bundle) Supported(lang string) bool {
	_, ok := b.messages[lang]
	return ok
}

// Match picks the best shipped locale for an Accept-Language value or a
// single tag such as "es-AR".
func (b *Bundle) Match(accept string) string {
	if strings.TrimSpace(accept) == "" {
		return b.def
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return b.def
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.def
	}
	return b.langs[idx]
}

// Has reports whether key exists in locale or in the default catalog.
func (b *Bundle) Has(locale, key string) bool {
	if _, ok := b.messages[locale][key]; ok {
		return true
	}
	_, ok := b.messages[b.def][key]
	return ok
}

// Translate renders key in locale, falling back to the default locale and
// then to the key itself.
func (b *Bundle) Translate(locale, key string, args Args) string {
	msg, ok := b.messages[locale][key]
	if !ok {
		msg, ok = b.messages[b.def][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}
