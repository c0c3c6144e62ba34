package main

import (
	"fmt"
	"time"

	"github.com/SimonPop/lanterns/internal/scaffold"
)

// NewCmd creates a content file.
type NewCmd struct {
	Title string `arg:"" help:"Title of the article."`
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.load(g)
	if err != nil {
		return err
	}
	path, err := scaffold.CreateNewContent(root.root(), cfg, n.Title, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Out, "Created %s\n", path)
	return nil
}
