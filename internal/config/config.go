// internal/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Setting names as they appear in site.yaml. They match the names the
// external generator reads from its settings module.
const (
	KeyAuthor                = "AUTHOR"
	KeySiteName              = "SITENAME"
	KeySiteURL               = "SITEURL"
	KeyPath                  = "PATH"
	KeyTimezone              = "TIMEZONE"
	KeyDefaultLang           = "DEFAULT_LANG"
	KeyAuthorBio             = "AUTHOR_BIO"
	KeyLinks                 = "LINKS"
	KeySocial                = "SOCIAL"
	KeyDefaultPagination     = "DEFAULT_PAGINATION"
	KeyRelativeURLs          = "RELATIVE_URLS"
	KeyTheme                 = "THEME"
	KeyOutputPath            = "OUTPUT_PATH"
	KeyDeleteOutputDirectory = "DELETE_OUTPUT_DIRECTORY"
	KeyStaticPaths           = "STATIC_PATHS"
	KeyExtraPathMetadata     = "EXTRA_PATH_METADATA"
	KeyPluginPaths           = "PLUGIN_PATHS"
	KeyPlugins               = "PLUGINS"
)

// FeedKind names one kind of syndication feed. Its value is the setting name.
type FeedKind string

const (
	FeedAllAtom         FeedKind = "FEED_ALL_ATOM"
	FeedCategoryAtom    FeedKind = "CATEGORY_FEED_ATOM"
	FeedTranslationAtom FeedKind = "TRANSLATION_FEED_ATOM"
	FeedAuthorAtom      FeedKind = "AUTHOR_FEED_ATOM"
	FeedAuthorRSS       FeedKind = "AUTHOR_FEED_RSS"
)

// FeedKinds lists every feed kind in the order they are written out.
var FeedKinds = []FeedKind{FeedAllAtom, FeedCategoryAtom, FeedTranslationAtom, FeedAuthorAtom, FeedAuthorRSS}

// FeedFlags maps a feed kind to its output path pattern. A nil entry means
// generation is disabled for that kind.
type FeedFlags map[FeedKind]*string

// Path returns the output pattern for kind and whether the feed is enabled.
func (f FeedFlags) Path(kind FeedKind) (string, bool) {
	p, ok := f[kind]
	if !ok || p == nil {
		return "", false
	}
	return *p, true
}

// Enabled reports whether the feed kind will be generated.
func (f FeedFlags) Enabled(kind FeedKind) bool {
	_, ok := f.Path(kind)
	return ok
}

// Link is one navigation entry, written in site.yaml as a [label, url] pair.
type Link struct {
	Label string
	URL   string
}

func (l Link) String() string { return fmt.Sprintf("(%s, %s)", l.Label, l.URL) }

// UnmarshalYAML accepts only two-element sequences of scalars.
func (l *Link) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode || len(value.Content) != 2 {
		return errors.New("entry must be a [label, url] pair")
	}
	for _, part := range value.Content {
		if part.Kind != yaml.ScalarNode {
			return errors.New("pair members must be strings")
		}
	}
	l.Label = value.Content[0].Value
	l.URL = value.Content[1].Value
	return nil
}

// MarshalYAML writes the pair in flow style.
func (l Link) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: l.Label},
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: l.URL},
		},
	}, nil
}

func (l Link) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{l.Label, l.URL})
}

// SiteConfig holds the settings loaded from site.yaml. A value is built once
// per load and is not modified afterwards.
type SiteConfig struct {
	Author                string
	SiteName              string
	SiteURL               string
	ContentPath           string
	Timezone              string
	DefaultLang           string
	Feeds                 FeedFlags
	AuthorBio             string
	Links                 []Link
	Social                []Link
	DefaultPagination     int
	RelativeURLs          bool
	Theme                 string
	OutputPath            string
	DeleteOutputDirectory bool
	StaticPaths           []string
	ExtraPathMetadata     map[string]map[string]any
	PluginPaths           []string
	Plugins               []string

	// Extra holds upper-case settings outside the typed schema. Themes and
	// plugins read these by name.
	Extra map[string]any
}

// Setting is a single name/value pair of a loaded configuration.
type Setting struct {
	Key   string
	Value any
}

// Settings returns the configuration as ordered name/value pairs: the typed
// settings first, then Extra sorted by name. Disabled feeds have a nil value.
func (c SiteConfig) Settings() []Setting {
	out := []Setting{
		{KeyAuthor, c.Author},
		{KeySiteName, c.SiteName},
		{KeySiteURL, c.SiteURL},
		{KeyPath, c.ContentPath},
		{KeyTimezone, c.Timezone},
		{KeyDefaultLang, c.DefaultLang},
	}
	for _, kind := range FeedKinds {
		var v any
		if p, ok := c.Feeds.Path(kind); ok {
			v = p
		}
		out = append(out, Setting{string(kind), v})
	}
	out = append(out,
		Setting{KeyAuthorBio, c.AuthorBio},
		Setting{KeyLinks, nonNilLinks(c.Links)},
		Setting{KeySocial, nonNilLinks(c.Social)},
		Setting{KeyDefaultPagination, c.DefaultPagination},
		Setting{KeyRelativeURLs, c.RelativeURLs},
		Setting{KeyTheme, c.Theme},
		Setting{KeyOutputPath, c.OutputPath},
		Setting{KeyDeleteOutputDirectory, c.DeleteOutputDirectory},
		Setting{KeyStaticPaths, nonNilStrings(c.StaticPaths)},
		Setting{KeyExtraPathMetadata, nonNilMetadata(c.ExtraPathMetadata)},
		Setting{KeyPluginPaths, nonNilStrings(c.PluginPaths)},
		Setting{KeyPlugins, nonNilStrings(c.Plugins)},
	)
	extra := make([]string, 0, len(c.Extra))
	for k := range c.Extra {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, Setting{k, c.Extra[k]})
	}
	return out
}

// Defaults returns the engine defaults used for every setting site.yaml does
// not declare.
func Defaults() SiteConfig {
	feed := func(p string) *string { return &p }
	return SiteConfig{
		ContentPath: ".",
		Timezone:    "UTC",
		DefaultLang: "en",
		Feeds: FeedFlags{
			FeedAllAtom:         feed("feeds/all.atom.xml"),
			FeedCategoryAtom:    feed("feeds/{slug}.atom.xml"),
			FeedTranslationAtom: feed("feeds/all-{lang}.atom.xml"),
			FeedAuthorAtom:      feed("feeds/{slug}.atom.xml"),
			FeedAuthorRSS:       feed("feeds/{slug}.rss.xml"),
		},
		Links:             []Link{},
		Social:            []Link{},
		DefaultPagination: 10,
		Theme:             "notmyidea",
		OutputPath:        "output",
		StaticPaths:       []string{"images"},
		ExtraPathMetadata: map[string]map[string]any{},
		PluginPaths:       []string{},
		Plugins:           []string{},
		Extra:             map[string]any{},
	}
}

func nonNilLinks(l []Link) []Link {
	if l == nil {
		return []Link{}
	}
	return l
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMetadata(m map[string]map[string]any) map[string]map[string]any {
	if m == nil {
		return map[string]map[string]any{}
	}
	return m
}
