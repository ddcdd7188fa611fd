package i18n

import (
	"golang.org/x/text/language"
)

// Catalog holds bundles per language and picks one for a list of preferred
// languages (typically parsed from an Accept-Language header).
type Catalog struct {
	tags    []language.Tag
	bundles []Bundle
	matcher language.Matcher
}

// NewCatalog builds a catalog whose first entry is the fallback.
func NewCatalog(fallback language.Tag, b Bundle) *Catalog {
	c := &Catalog{}
	c.Add(fallback, b)
	return c
}

// DefaultCatalog contains the built-in English and Japanese bundles.
func DefaultCatalog() *Catalog {
	c := NewCatalog(language.English, English())
	c.Add(language.Japanese, Japanese())
	return c
}

// Add registers or replaces the bundle for tag.
func (c *Catalog) Add(tag language.Tag, b Bundle) {
	for i, t := range c.tags {
		if t == tag {
			c.bundles[i] = b
			return
		}
	}
	c.tags = append(c.tags, tag)
	c.bundles = append(c.bundles, b)
	c.matcher = language.NewMatcher(c.tags)
}

// Match returns the best bundle for the preferences. Each preference may be
// a BCP 47 tag or a full Accept-Language value.
func (c *Catalog) Match(prefs ...string) (Bundle, language.Tag) {
	if len(c.tags) == 0 {
		return English(), language.English
	}
	var want []language.Tag
	for _, p := range prefs {
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		want = append(want, tags...)
	}
	_, idx, conf := c.matcher.Match(want...)
	if conf == language.No {
		idx = 0
	}
	return c.bundles[idx], c.tags[idx]
}
