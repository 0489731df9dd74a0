package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/scholarsite/cmd/scholarsite/commands"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("scholarsite"),
		kong.Description("Serve and statically export a multilingual academic website."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Logger: slog.Default()}
	err := parser.Run(global, cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
