package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSite(t *testing.T) SiteConfig {
	t.Helper()
	cfg, err := Load(filepath.Join("testdata", "site.yaml"))
	require.NoError(t, err)
	return cfg
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSiteFile(t *testing.T) {
	cfg := loadSite(t)

	assert.Equal(t, "Simon Popelier", cfg.Author)
	assert.Equal(t, "The Lanterns", cfg.SiteName)
	assert.Empty(t, cfg.SiteURL)
	assert.Equal(t, "content", cfg.ContentPath)
	assert.Equal(t, "Europe/Paris", cfg.Timezone)
	assert.Equal(t, "en", cfg.DefaultLang)
	assert.Equal(t, "Data Scientist and graph lover.", cfg.AuthorBio)
	assert.Equal(t, 10, cfg.DefaultPagination)
	assert.False(t, cfg.RelativeURLs)
	assert.Equal(t, "themes/svbtle", cfg.Theme)
	assert.Equal(t, "output", cfg.OutputPath)
	assert.Equal(t, []string{"imgs", "extra"}, cfg.StaticPaths)
	assert.Equal(t, []string{"plugins"}, cfg.PluginPaths)
	assert.Empty(t, cfg.Extra)
}

func TestLoadLinksKeepOrder(t *testing.T) {
	cfg := loadSite(t)

	require.Len(t, cfg.Links, 2)
	assert.Equal(t, Link{Label: "GitHub", URL: "https://github.com/SimonPop"}, cfg.Links[0])
	assert.Equal(t, Link{Label: "LinkedIn", URL: "https://www.linkedin.com/in/simon-popelier/"}, cfg.Links[1])

	assert.Equal(t, []Link{
		{Label: "You can add links in your config file", URL: "#"},
		{Label: "Another social link", URL: "#"},
	}, cfg.Social)
}

func TestLoadFeedsDisabled(t *testing.T) {
	cfg := loadSite(t)

	for _, kind := range FeedKinds {
		assert.False(t, cfg.Feeds.Enabled(kind), "feed %s should be disabled", kind)
		p, present := cfg.Feeds[kind]
		assert.True(t, present, "feed %s should be declared", kind)
		assert.Nil(t, p)
	}
}

func TestLoadExtraPathMetadataAndPlugins(t *testing.T) {
	cfg := loadSite(t)

	assert.Equal(t, map[string]map[string]any{
		"extra/lantern.ico": {"path": "favicon.ico"},
	}, cfg.ExtraPathMetadata)
	assert.Equal(t, []string{"pelican-js", "render_math"}, cfg.Plugins)
}

func TestLoadIsIdempotent(t *testing.T) {
	first := loadSite(t)
	second := loadSite(t)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeSettings(t, "AUTHOR: Someone\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Defaults()
	want.Author = "Someone"
	assert.Equal(t, want, cfg)
	assert.True(t, cfg.Feeds.Enabled(FeedAllAtom))
	p, _ := cfg.Feeds.Path(FeedAuthorRSS)
	assert.Equal(t, "feeds/{slug}.rss.xml", p)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeSettings(t, "# nothing here\n"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadSyntaxError(t *testing.T) {
	_, err := Load(writeSettings(t, "LINKS: [unclosed\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not parse config file")

	var cerr *ConfigError
	assert.False(t, errors.As(err, &cerr))
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
	}{
		{"pagination string", "DEFAULT_PAGINATION: ten\n", KeyDefaultPagination},
		{"pagination float", "DEFAULT_PAGINATION: 2.5\n", KeyDefaultPagination},
		{"pagination zero", "DEFAULT_PAGINATION: 0\n", KeyDefaultPagination},
		{"pagination negative", "DEFAULT_PAGINATION: -3\n", KeyDefaultPagination},
		{"pagination false", "DEFAULT_PAGINATION: false\n", KeyDefaultPagination},
		{"link triple", "LINKS:\n  - [a, b, c]\n", KeyLinks},
		{"link mapping", "SOCIAL:\n  - {label: a, url: b}\n", KeySocial},
		{"links not a list", "LINKS: github\n", KeyLinks},
		{"relative urls word", "RELATIVE_URLS: yes\n", KeyRelativeURLs},
		{"timezone", "TIMEZONE: Mars/Olympus\n", KeyTimezone},
		{"language", "DEFAULT_LANG: not a tag\n", KeyDefaultLang},
		{"site url relative", "SITEURL: /blog\n", KeySiteURL},
		{"static paths scalar", "STATIC_PATHS: imgs\n", KeyStaticPaths},
		{"plugins nested", "PLUGINS:\n  - [a]\n", KeyPlugins},
		{"feed number", "FEED_ALL_ATOM: 3\n", string(FeedAllAtom)},
		{"extra path metadata list", "EXTRA_PATH_METADATA: [a]\n", KeyExtraPathMetadata},
		{"extra path metadata dest", "EXTRA_PATH_METADATA:\n  a.ico: {path: 4}\n", KeyExtraPathMetadata},
		{"theme mapping", "THEME: {name: x}\n", KeyTheme},
		{"empty output path", "OUTPUT_PATH: ''\n", KeyOutputPath},
		{"duplicate key", "AUTHOR: a\nAUTHOR: b\n", KeyAuthor},
		{"timezone local", "TIMEZONE: Local\n", KeyTimezone},
		{"extra infinite", "MATH_SCALE: .inf\n", "MATH_SCALE"},
		{"extra nested nan", "MATH_JAX:\n  scale: [1, .nan]\n", "MATH_JAX"},
		{"extra path metadata infinite", "EXTRA_PATH_METADATA:\n  a.ico: {weight: -.inf}\n", KeyExtraPathMetadata},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeSettings(t, tt.content))
			require.Error(t, err)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "want ConfigError, got %T: %v", err, err)
			assert.True(t, cerr.Has(tt.key), "issues %v should mention %s", cerr.Issues, tt.key)
		})
	}
}

func TestLoadReportsEveryIssue(t *testing.T) {
	_, err := Load(writeSettings(t, "DEFAULT_PAGINATION: many\nTIMEZONE: Nowhere/Land\nRELATIVE_URLS: 1\n"))

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Len(t, cerr.Issues, 3)
	assert.Contains(t, err.Error(), "DEFAULT_PAGINATION")
	assert.Contains(t, err.Error(), "TIMEZONE")
	assert.Contains(t, err.Error(), "RELATIVE_URLS")
}

func TestLoadTopLevelMustBeMapping(t *testing.T) {
	_, err := Load(writeSettings(t, "- AUTHOR\n- SITENAME\n"))

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Issues[0].Message, "mapping")
}

func TestLoadIgnoresLowerCaseNames(t *testing.T) {
	cfg, err := Load(writeSettings(t, "author: ignored\nAUTHOR: kept\n"))
	require.NoError(t, err)
	assert.Equal(t, "kept", cfg.Author)
	assert.Empty(t, cfg.Extra)
}

func TestLoadKeepsUnknownSettings(t *testing.T) {
	cfg, err := Load(writeSettings(t, "MATH_JAX:\n  color: blue\n  align: left\nDISPLAY_PAGES_ON_MENU: true\n"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"color": "blue", "align": "left"}, cfg.Extra["MATH_JAX"])
	assert.Equal(t, true, cfg.Extra["DISPLAY_PAGES_ON_MENU"])
}

func TestLoadDeduplicatesStaticPaths(t *testing.T) {
	cfg, err := Load(writeSettings(t, "STATIC_PATHS: [imgs, extra, imgs]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"imgs", "extra"}, cfg.StaticPaths)
}

func TestLoadEnabledFeed(t *testing.T) {
	cfg, err := Load(writeSettings(t, "FEED_ALL_ATOM: feeds/everything.xml\nAUTHOR_FEED_RSS: ''\n"))
	require.NoError(t, err)

	p, ok := cfg.Feeds.Path(FeedAllAtom)
	assert.True(t, ok)
	assert.Equal(t, "feeds/everything.xml", p)
	assert.False(t, cfg.Feeds.Enabled(FeedAuthorRSS))
}

func TestLoadOverlay(t *testing.T) {
	t.Setenv("LANTERNS_SITEURL", "https://lanterns.example.org")

	cfg, err := Load(filepath.Join("testdata", "site.yaml"), filepath.Join("testdata", "publish.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://lanterns.example.org", cfg.SiteURL)
	assert.True(t, cfg.DeleteOutputDirectory)
	assert.True(t, cfg.Feeds.Enabled(FeedAllAtom))
	assert.True(t, cfg.Feeds.Enabled(FeedCategoryAtom))
	assert.False(t, cfg.Feeds.Enabled(FeedAuthorRSS))
	// untouched keys come from the base file
	assert.Equal(t, "The Lanterns", cfg.SiteName)
	assert.Equal(t, []string{"pelican-js", "render_math"}, cfg.Plugins)
}

func TestLoaderEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LANTERNS_TEST_AUTHOR=From Env\n"), 0o644))
	t.Setenv("LANTERNS_TEST_AUTHOR", "")
	os.Unsetenv("LANTERNS_TEST_AUTHOR")

	path := writeSettings(t, "AUTHOR: ${LANTERNS_TEST_AUTHOR}\n")
	l := &Loader{EnvFiles: []string{filepath.Join(dir, "missing.env"), envFile}}
	cfg, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Author)
}

func TestLoadKeepsLiteralDollar(t *testing.T) {
	t.Setenv("Lanterns", "expanded")

	cfg, err := (&Loader{}).LoadBytes("inline", []byte("AUTHOR_BIO: 'Costs $5 per $HOME visit'\nSITENAME: The $Lanterns\n"))
	require.NoError(t, err)
	assert.Equal(t, "Costs $5 per $HOME visit", cfg.AuthorBio)
	assert.Equal(t, "The $Lanterns", cfg.SiteName)
}

func TestLoadEnvValueStaysInItsSetting(t *testing.T) {
	t.Setenv("LANTERNS_TEST_BIO", "Graph lover.\nPLUGINS: [evil]")

	cfg, err := (&Loader{}).LoadBytes("inline", []byte("AUTHOR_BIO: ${LANTERNS_TEST_BIO}\n"))
	require.NoError(t, err)
	assert.Equal(t, "Graph lover.\nPLUGINS: [evil]", cfg.AuthorBio)
	assert.Empty(t, cfg.Plugins)
	assert.NotContains(t, cfg.Extra, "PLUGINS")
}

func TestLoadEnvReferenceInQuotedAndPlainValues(t *testing.T) {
	t.Setenv("LANTERNS_TEST_PAGES", "25")
	t.Setenv("LANTERNS_TEST_HOST", "lanterns.example.org")

	cfg, err := (&Loader{}).LoadBytes("inline", []byte(
		"DEFAULT_PAGINATION: ${LANTERNS_TEST_PAGES}\n"+
			"SITEURL: 'https://${LANTERNS_TEST_HOST}'\n"+
			"SITENAME: '${LANTERNS_TEST_PAGES}'\n"+
			"LINKS:\n  - [Home, 'https://${LANTERNS_TEST_HOST}/']\n"))
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.DefaultPagination)
	assert.Equal(t, "https://lanterns.example.org", cfg.SiteURL)
	assert.Equal(t, "25", cfg.SiteName)
	assert.Equal(t, []Link{{Label: "Home", URL: "https://lanterns.example.org/"}}, cfg.Links)
}

func TestLoadIssueLocationAppearsOnce(t *testing.T) {
	_, err := Load(writeSettings(t, "AUTHOR: a\nLINKS:\n  - [a, b, c]\nPLUGINS:\n  - [x]\n"))

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	require.Len(t, cerr.Issues, 2)
	for _, issue := range cerr.Issues {
		assert.Equal(t, 1, strings.Count(issue.String(), ":"+strconv.Itoa(issue.Line)+":"), issue.String())
		assert.NotContains(t, issue.String(), "line ")
	}
}

func TestLoaderDisableEnvExpansion(t *testing.T) {
	t.Setenv("LANTERNS_TEST_NAME", "expanded")

	l := &Loader{DisableEnvExpansion: true}
	cfg, err := l.LoadBytes("inline", []byte("SITENAME: ${LANTERNS_TEST_NAME}\n"))
	require.NoError(t, err)
	assert.Equal(t, "${LANTERNS_TEST_NAME}", cfg.SiteName)
}

func TestFingerprintChangesWithValues(t *testing.T) {
	a := loadSite(t)
	b := loadSite(t)
	b.DefaultPagination = 5

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

func TestSettingsOrder(t *testing.T) {
	cfg := loadSite(t)
	cfg.Extra = map[string]any{"ZED": 1, "ALPHA": 2}

	settings := cfg.Settings()
	assert.Equal(t, KeyAuthor, settings[0].Key)
	assert.Equal(t, "ALPHA", settings[len(settings)-2].Key)
	assert.Equal(t, "ZED", settings[len(settings)-1].Key)

	for _, s := range settings {
		if s.Key == string(FeedAllAtom) {
			assert.Nil(t, s.Value)
		}
	}
}
