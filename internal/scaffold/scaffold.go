// internal/scaffold/scaffold.go
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/SimonPop/lanterns/internal/config"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SiteOptions fills in the generated site.yaml.
type SiteOptions struct {
	SiteName string
	Author   string
	Timezone string
	// Force overwrites an existing site.yaml and publish.yaml.
	Force bool
}

// ErrExists is returned when scaffolding would overwrite a file.
var ErrExists = errors.New("file already exists")

// CreateNewSite writes a settings file, a publish overlay and the directory
// tree the settings point at.
func CreateNewSite(dir string, opts SiteOptions) error {
	if opts.SiteName == "" {
		opts.SiteName = "My Site"
	}
	if opts.Author == "" {
		opts.Author = "Your Name"
	}
	if opts.Timezone == "" {
		opts.Timezone = "UTC"
	}

	fmt.Println("Scaffolding new site in:", dir)
	dirs := []string{"content", "content/imgs", "content/extra", "plugins", "archetypes"}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}

	siteYAML, err := execute(siteYamlTemplate, opts)
	if err != nil {
		return err
	}
	files := []struct {
		path      string
		content   string
		overwrite bool
	}{
		{"site.yaml", siteYAML, opts.Force},
		{"publish.yaml", publishYamlContent, opts.Force},
		{"archetypes/default.md", archetypeDefaultMdContent, false},
	}
	for _, f := range files {
		err := writeFile(filepath.Join(dir, f.path), []byte(f.content), f.overwrite)
		if errors.Is(err, ErrExists) && f.path == "archetypes/default.md" {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to write file %s: %w", f.path, err)
		}
	}
	fmt.Println("Site scaffolded. You can now:")
	fmt.Println("  cd", dir)
	fmt.Println("  lanterns new \"My first post\"")
	fmt.Println("  lanterns check")
	return nil
}

// CreateNewContent writes a Markdown source for title into the content
// directory and returns its path. The date is taken in the site time zone.
func CreateNewContent(root string, cfg config.SiteConfig, title string, now time.Time) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("title %q does not produce a usable slug", title)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return "", fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	archetype := archetypeDefaultMdContent
	archetypePath := filepath.Join(root, "archetypes", "default.md")
	if b, err := os.ReadFile(archetypePath); err == nil {
		archetype = string(b)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("could not read archetype file %s: %w", archetypePath, err)
	}
	tmpl, err := template.New("archetype").Parse(archetype)
	if err != nil {
		return "", fmt.Errorf("failed to parse archetype file %s: %w", archetypePath, err)
	}

	data := struct {
		Title  string
		Date   string
		Author string
		Lang   string
		Slug   string
	}{
		Title:  title,
		Date:   now.In(loc).Format("2006-01-02 15:04"),
		Author: cfg.Author,
		Lang:   cfg.DefaultLang,
		Slug:   slug,
	}
	var output bytes.Buffer
	if err := tmpl.Execute(&output, data); err != nil {
		return "", fmt.Errorf("failed to execute archetype template: %w", err)
	}

	path := filepath.Join(root, filepath.FromSlash(cfg.ContentPath), slug+".md")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := writeFile(path, output.Bytes(), false); err != nil {
		return "", err
	}
	return path, nil
}

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify folds title to lower-case ASCII words joined by dashes.
func Slugify(title string) string {
	folded, _, err := transform.String(stripMarks, title)
	if err != nil {
		folded = title
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	return b.String()
}

func writeFile(path string, data []byte, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w (use --force to overwrite)", path, ErrExists)
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func execute(text string, data any) (string, error) {
	tmpl, err := template.New("scaffold").Funcs(template.FuncMap{
		"quote": func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" },
	}).Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const siteYamlTemplate = `AUTHOR: {{ quote .Author }}
SITENAME: {{ quote .SiteName }}
SITEURL: ''

PATH: content

TIMEZONE: {{ quote .Timezone }}

DEFAULT_LANG: en

# Feed generation is usually not desired when developing
FEED_ALL_ATOM: null
CATEGORY_FEED_ATOM: null
TRANSLATION_FEED_ATOM: null
AUTHOR_FEED_ATOM: null
AUTHOR_FEED_RSS: null
AUTHOR_BIO: ''

# Blogroll
LINKS: []

# Social widget
SOCIAL: []

DEFAULT_PAGINATION: 10

# Uncomment following line if you want document-relative URLs when developing
#RELATIVE_URLS: true

THEME: notmyidea
OUTPUT_PATH: output

STATIC_PATHS: [imgs, extra]
EXTRA_PATH_METADATA: {}

PLUGIN_PATHS: [plugins]
PLUGINS: []
`

const publishYamlContent = `# Overlay applied on top of site.yaml when publishing:
#   lanterns export --overlay publish.yaml
SITEURL: ${LANTERNS_SITEURL}
RELATIVE_URLS: false

FEED_ALL_ATOM: feeds/all.atom.xml
CATEGORY_FEED_ATOM: feeds/{slug}.atom.xml

DELETE_OUTPUT_DIRECTORY: true
`

const archetypeDefaultMdContent = `Title: {{.Title}}
Date: {{.Date}}
Author: {{.Author}}
Lang: {{.Lang}}
Slug: {{.Slug}}
Summary:

Write something meaningful here.
`
