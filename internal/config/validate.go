package config

import (
	"fmt"
	"net/url"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/language"
)

// validate checks the values the generator cannot work with. Paths are not
// checked against the filesystem here; see the layout package for that.
func validate(cfg SiteConfig) []Issue {
	var issues []Issue
	add := func(key, format string, args ...any) {
		issues = append(issues, Issue{Key: key, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.DefaultPagination <= 0 {
		add(KeyDefaultPagination, "must be a positive integer, got %d", cfg.DefaultPagination)
	}

	if cfg.Timezone == "" {
		add(KeyTimezone, "must not be empty")
	} else if cfg.Timezone == "Local" {
		add(KeyTimezone, "must name an IANA time zone, not the host's local zone")
	} else if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		add(KeyTimezone, "unknown IANA time zone %q", cfg.Timezone)
	}

	if cfg.DefaultLang == "" {
		add(KeyDefaultLang, "must not be empty")
	} else if _, err := language.Parse(cfg.DefaultLang); err != nil {
		add(KeyDefaultLang, "%q is not a valid language tag", cfg.DefaultLang)
	}

	if cfg.SiteURL != "" {
		u, err := url.Parse(cfg.SiteURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(KeySiteURL, "must be empty or an absolute http(s) URL, got %q", cfg.SiteURL)
		}
	}

	for key, value := range map[string]string{
		KeyPath:       cfg.ContentPath,
		KeyOutputPath: cfg.OutputPath,
		KeyTheme:      cfg.Theme,
	} {
		if value == "" {
			add(key, "must not be empty")
		}
	}

	for key, links := range map[string][]Link{KeyLinks: cfg.Links, KeySocial: cfg.Social} {
		for i, l := range links {
			if l.Label == "" {
				add(key, "entry %d has an empty label", i+1)
			}
		}
	}

	for path, meta := range cfg.ExtraPathMetadata {
		if dest, ok := meta["path"]; ok {
			if s, isString := dest.(string); !isString || s == "" {
				add(KeyExtraPathMetadata, "%s: path must be a non-empty string", path)
			}
		}
	}

	sortIssues(issues)
	return issues
}
