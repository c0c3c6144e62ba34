package export

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SimonPop/lanterns/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteConfig(t *testing.T) config.SiteConfig {
	t.Helper()
	cfg, err := config.Load(filepath.Join("..", "config", "testdata", "site.yaml"))
	require.NoError(t, err)
	return cfg
}

const wantPelican = `# Generated by lanterns. Edit site.yaml instead of this file.

AUTHOR = 'Simon Popelier'
SITENAME = 'The Lanterns'
SITEURL = ''
PATH = 'content'
TIMEZONE = 'Europe/Paris'
DEFAULT_LANG = 'en'
FEED_ALL_ATOM = None
CATEGORY_FEED_ATOM = None
TRANSLATION_FEED_ATOM = None
AUTHOR_FEED_ATOM = None
AUTHOR_FEED_RSS = None
AUTHOR_BIO = 'Data Scientist and graph lover.'
LINKS = (('GitHub', 'https://github.com/SimonPop'), ('LinkedIn', 'https://www.linkedin.com/in/simon-popelier/'))
SOCIAL = (('You can add links in your config file', '#'), ('Another social link', '#'))
DEFAULT_PAGINATION = 10
RELATIVE_URLS = False
THEME = 'themes/svbtle'
OUTPUT_PATH = 'output'
DELETE_OUTPUT_DIRECTORY = False
STATIC_PATHS = ['imgs', 'extra']
EXTRA_PATH_METADATA = {'extra/lantern.ico': {'path': 'favicon.ico'}}
PLUGIN_PATHS = ['plugins']
PLUGINS = ['pelican-js', 'render_math']
`

func TestEncodePelican(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, siteConfig(t), FormatPelican))
	assert.Equal(t, wantPelican, buf.String())
}

func TestEncodePelicanExtraSettings(t *testing.T) {
	cfg := siteConfig(t)
	cfg.Extra = map[string]any{
		"MATH_JAX":   map[string]any{"color": "blue", "process_escapes": true},
		"MENU_ITEMS": []any{"home", 3, nil},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg, FormatPelican))
	out := buf.String()
	assert.Contains(t, out, "MATH_JAX = {'color': 'blue', 'process_escapes': True}\n")
	assert.Contains(t, out, "MENU_ITEMS = ['home', 3, None]\n")
}

func TestPyString(t *testing.T) {
	assert.Equal(t, `'plain'`, pyString("plain"))
	assert.Equal(t, `'it\'s'`, pyString("it's"))
	assert.Equal(t, `'a\\b'`, pyString(`a\b`))
	assert.Equal(t, `'two\nlines'`, pyString("two\nlines"))
	assert.Equal(t, `'été'`, pyString("été"))
}

func TestPyLiteralFloats(t *testing.T) {
	assert.Equal(t, "2.5", pyLiteral(2.5))
	assert.Equal(t, "float('inf')", pyLiteral(math.Inf(1)))
	assert.Equal(t, "float('-inf')", pyLiteral(math.Inf(-1)))
	assert.Equal(t, "float('nan')", pyLiteral(math.NaN()))
}

func TestPyTuple(t *testing.T) {
	assert.Equal(t, "()", pyLiteral([]config.Link{}))
	assert.Equal(t, "(('a', 'b'),)", pyLiteral([]config.Link{{Label: "a", URL: "b"}}))
}

func TestEncodeYAMLRoundTrip(t *testing.T) {
	cfg := siteConfig(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg, FormatYAML))

	back, err := (&config.Loader{DisableEnvExpansion: true}).LoadBytes("exported.yaml", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
	assert.Equal(t, cfg.Fingerprint(), back.Fingerprint())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "AUTHOR: Simon Popelier\n"), out)
	assert.Contains(t, out, "FEED_ALL_ATOM: null\n")
	assert.Contains(t, out, "[GitHub, 'https://github.com/SimonPop']")
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, siteConfig(t), FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "The Lanterns", decoded["SITENAME"])
	assert.Nil(t, decoded["AUTHOR_FEED_RSS"])
	assert.Contains(t, decoded, "AUTHOR_FEED_RSS")
	assert.Equal(t, float64(10), decoded["DEFAULT_PAGINATION"])
	assert.Equal(t, []any{
		[]any{"GitHub", "https://github.com/SimonPop"},
		[]any{"LinkedIn", "https://www.linkedin.com/in/simon-popelier/"},
	}, decoded["LINKS"])
	assert.Equal(t, map[string]any{"extra/lantern.ico": map[string]any{"path": "favicon.ico"}}, decoded["EXTRA_PATH_METADATA"])

	// keys keep setting order
	assert.Less(t, strings.Index(buf.String(), `"AUTHOR"`), strings.Index(buf.String(), `"PLUGINS"`))
}

func TestEncodeJSONNonStringKeys(t *testing.T) {
	cfg := siteConfig(t)
	cfg.Extra = map[string]any{"NUMBERED": map[interface{}]interface{}{1: "one"}}

	data, err := JSON(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"1": "one"`)
}

func TestEncodeText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, siteConfig(t), FormatText))
	out := buf.String()

	assert.Contains(t, out, "FEED_ALL_ATOM")
	assert.Contains(t, out, "(disabled)")
	assert.Contains(t, out, "1. GitHub -> https://github.com/SimonPop")
	assert.Contains(t, out, "2. LinkedIn -> https://www.linkedin.com/in/simon-popelier/")
	assert.Contains(t, out, "extra/lantern.ico: {'path': 'favicon.ico'}")
}

func TestRows(t *testing.T) {
	cfg := siteConfig(t)
	rows := Rows(cfg)
	require.Len(t, rows, len(cfg.Settings()))
	for _, row := range rows {
		assert.NotEmpty(t, row.Lines, row.Key)
	}
	assert.Equal(t, config.KeyAuthor, rows[0].Key)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Pelican ")
	require.NoError(t, err)
	assert.Equal(t, FormatPelican, f)

	_, err = ParseFormat("toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yaml, json, pelican, text")

	assert.Equal(t, "pelicanconf.py", DefaultFilename(FormatPelican))
	assert.Equal(t, "site.yaml", DefaultFilename(FormatYAML))
}
