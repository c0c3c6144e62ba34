// cmd/lanterns/main.go
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/SimonPop/lanterns/internal/events"
	"github.com/alecthomas/kong"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "lanterns: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	g := &Global{Out: stdout, Err: stderr}
	parser, err := kong.New(&cli,
		kong.Name("lanterns"),
		kong.Description("Load, check, export and preview Pelican site settings kept in site.yaml."),
		kong.UsageOnError(),
		kong.Vars{"version": version, "nats_subject": events.DefaultSubject},
		kong.Bind(g),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(g, &cli)
}
