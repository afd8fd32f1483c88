package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/labref/cmd/labref/commands"
	ferrors "git.home.luguber.info/inful/labref/internal/foundation/errors"
	"git.home.luguber.info/inful/labref/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("labref"),
		kong.Description("Generate a static lab test reference site from a delimited table."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Get().String()},
	)
	err := parser.Run(&commands.Global{}, cli)
	adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	os.Exit(adapter.Report(err))
}
