package util

import (
	"path"
	"strings"

	"github.com/SimonPop/lanterns/internal/config"
)

// ComputeBaseHref calculates the relative path to the site root
// so that links work correctly for pages at any depth.
// For example, a page at posts/a/b.html would get a BaseHref of "../../".
func ComputeBaseHref(relPath string) string {
	dir := path.Dir(toSlash(relPath))
	if dir == "." || dir == "/" {
		return ""
	}
	depth := strings.Count(strings.Trim(dir, "/"), "/") + 1
	return strings.Repeat("../", depth)
}

// BaseHref returns the prefix the generator puts in front of site-relative
// URLs on the page at relPath: a relative prefix when RELATIVE_URLS is on,
// SITEURL plus a slash otherwise, or "/" when SITEURL is unset.
func BaseHref(cfg config.SiteConfig, relPath string) string {
	if cfg.RelativeURLs {
		return ComputeBaseHref(relPath)
	}
	if cfg.SiteURL == "" {
		return "/"
	}
	return strings.TrimSuffix(cfg.SiteURL, "/") + "/"
}

// URLFor builds the URL of target (a path relative to the output root) as
// seen from the page at fromPath.
func URLFor(cfg config.SiteConfig, fromPath, target string) string {
	return BaseHref(cfg, fromPath) + strings.TrimPrefix(toSlash(target), "/")
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
