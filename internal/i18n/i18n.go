// Package i18n はAPIメッセージの多言語カタログを提供する。
// ロケールごとのフラットなキー・バリューのJSONをバイナリに埋め込み、
// Accept-Languageヘッダーとlangクエリパラメータからロケールを解決する。
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/hitoshi/brandlink/internal/model"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog はロケール別のメッセージカタログを保持する。
// 読み取り専用で構築後は変更されないため、並行アクセスは安全。
type Catalog struct {
	messages      map[string]map[string]string
	tags          []language.Tag
	matcher       language.Matcher
	defaultLocale string
}

// NewCatalog は埋め込みロケールファイルからカタログを構築する。
// defaultLocaleのカタログが存在しない場合はエラーを返す。
func NewCatalog(defaultLocale string) (*Catalog, error) {
	messages := map[string]map[string]string{}

	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		locale := strings.TrimSuffix(name, ".json")

		data, err := localeFS.ReadFile(path.Join("locales", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", locale, err)
		}

		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", locale, err)
		}
		messages[locale] = m
	}

	if _, ok := messages[defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q not found in catalog", defaultLocale)
	}

	// マッチャーのタグ順: デフォルトロケールを先頭にして最優先にする
	tags := []language.Tag{language.Make(defaultLocale)}
	locales := make([]string, 0, len(messages))
	for locale := range messages {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		if locale == defaultLocale {
			continue
		}
		tags = append(tags, language.Make(locale))
	}

	return &Catalog{
		messages:      messages,
		tags:          tags,
		matcher:       language.NewMatcher(tags),
		defaultLocale: defaultLocale,
	}, nil
}

// Locales は利用可能なロケールの一覧をソート済みで返す。
func (c *Catalog) Locales() []string {
	locales := make([]string, 0, len(c.messages))
	for locale := range c.messages {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// DefaultLocale はデフォルトロケールを返す。
func (c *Catalog) DefaultLocale() string {
	return c.defaultLocale
}

// HasLocale は指定ロケールのカタログが存在するかを返す。
func (c *Catalog) HasLocale(locale string) bool {
	_, ok := c.messages[locale]
	return ok
}

// Messages は指定ロケールの全メッセージを返す。
// 未対応ロケールの場合はUNKNOWN_LOCALEエラーを返す。
func (c *Catalog) Messages(locale string) (map[string]string, error) {
	m, ok := c.messages[locale]
	if !ok {
		return nil, model.NewUnknownLocaleError(locale)
	}
	return m, nil
}

// Translate は指定ロケールでキーを翻訳する。
// キーが見つからない場合はデフォルトロケールを参照し、
// それでも見つからない場合はfallbackを返す。
func (c *Catalog) Translate(locale, key, fallback string) string {
	if key == "" {
		return fallback
	}
	if m, ok := c.messages[locale]; ok {
		if msg, ok := m[key]; ok {
			return msg
		}
	}
	if m, ok := c.messages[c.defaultLocale]; ok {
		if msg, ok := m[key]; ok {
			return msg
		}
	}
	return fallback
}

// MatchLocale はlangクエリパラメータとAccept-Languageヘッダーから
// 最適なロケールを解決する。langパラメータが優先される。
// どちらにもマッチしない場合はデフォルトロケールを返す。
func (c *Catalog) MatchLocale(langParam, acceptLanguage string) string {
	// 完全一致するlangパラメータは最優先
	if langParam != "" && c.HasLocale(langParam) {
		return langParam
	}

	prefs := []string{}
	if langParam != "" {
		prefs = append(prefs, langParam)
	}
	if acceptLanguage != "" {
		prefs = append(prefs, acceptLanguage)
	}
	if len(prefs) == 0 {
		return c.defaultLocale
	}

	tag, _ := language.MatchStrings(c.matcher, prefs...)
	base, _ := tag.Base()
	locale := base.String()
	if c.HasLocale(locale) {
		return locale
	}
	return c.defaultLocale
}
