package main

import (
	"errors"
	"fmt"

	"github.com/SimonPop/lanterns/internal/config"
	"github.com/SimonPop/lanterns/internal/layout"
)

// CheckCmd validates the settings, then inspects the directories they
// point at.
type CheckCmd struct {
	Strict bool `help:"Treat layout warnings as errors."`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	var cerr *config.ConfigError
	if errors.As(err, &cerr) {
		for _, issue := range cerr.Issues {
			fmt.Fprintf(g.Out, "error: %s\n", issue)
		}
		return fmt.Errorf("%d problem(s) in %s", len(cerr.Issues), root.Config)
	}
	if err != nil {
		return err
	}

	l, err := layout.Resolve(root.root(), cfg)
	if err != nil {
		return err
	}
	findings := l.Inspect()
	warnings := 0
	for _, f := range findings {
		fmt.Fprintln(g.Out, f)
		if f.Severity == layout.SeverityWarning {
			warnings++
		}
	}
	if layout.HasErrors(findings) || (c.Strict && warnings > 0) {
		return fmt.Errorf("%d layout problem(s)", len(findings))
	}
	fmt.Fprintf(g.Out, "ok: %s (fingerprint %.12s)\n", cfg.SiteName, cfg.Fingerprint())
	return nil
}
