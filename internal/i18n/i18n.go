package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// Supported lists the languages shipped in locales/.
var Supported = []string{"en", "es"}

// I18n wraps a message bundle with a default language.
type I18n struct {
	bundle      *i18n.Bundle
	defaultLang language.Tag
	matcher     language.Matcher
}

// New loads the embedded message files. An unknown default falls back to English.
func New(defaultLang string) (*I18n, error) {
	def, err := language.Parse(defaultLang)
	if err != nil {
		def = language.English
	}
	bundle := i18n.NewBundle(def)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, e.Name()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
	}

	tags := make([]language.Tag, 0, len(Supported))
	for _, s := range Supported {
		tags = append(tags, language.Make(s))
	}
	return &I18n{bundle: bundle, defaultLang: def, matcher: language.NewMatcher(tags)}, nil
}

// T returns the message for msgID in lang, or msgID itself when no translation exists.
func (i *I18n) T(lang, msgID string, data map[string]any) string {
	loc := i18n.NewLocalizer(i.bundle, lang, i.defaultLang.String())
	lc := &i18n.LocalizeConfig{MessageID: msgID}
	if len(data) > 0 {
		lc.TemplateData = data
	}
	msg, err := loc.Localize(lc)
	if err != nil {
		return msgID
	}
	return msg
}

// Match picks the closest supported language for an Accept-Language value.
func (i *I18n) Match(accept string) string {
	if accept == "" {
		return i.defaultLang.String()
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return i.defaultLang.String()
	}
	_, idx, conf := i.matcher.Match(tags...)
	if conf == language.No {
		return i.defaultLang.String()
	}
	return Supported[idx]
}

const langCookie = "lang"

// Middleware resolves the request language from ?lang=, the lang cookie, then
// Accept-Language, and stores it in Locals("lang").
func (i *I18n) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang := ""
		if q := c.Query("lang"); q != "" && isSupported(q) {
			lang = q
			c.Cookie(&fiber.Cookie{Name: langCookie, Value: q, Path: "/", HTTPOnly: true, SameSite: fiber.CookieSameSiteLaxMode})
		} else if ck := c.Cookies(langCookie); ck != "" && isSupported(ck) {
			lang = ck
		} else {
			lang = i.Match(c.Get(fiber.HeaderAcceptLanguage))
		}
		c.Locals("lang", lang)
		return c.Next()
	}
}

// Lang returns the language chosen by Middleware, or "en".
func Lang(c *fiber.Ctx) string {
	if l, ok := c.Locals("lang").(string); ok && l != "" {
		return l
	}
	return "en"
}

func isSupported(l string) bool {
	for _, s := range Supported {
		if s == l {
			return true
		}
	}
	return false
}
