package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/byteness/playauth/cli"
)

// Version is provided at compile time
var Version = "dev"

func main() {
	app := kingpin.New("playauth", "Player authentication for embedded games")
	app.Version(Version)

	p := cli.ConfigureGlobals(app)
	cli.ConfigureLoginCommand(app, p)
	cli.ConfigureLogoutCommand(app, p)
	cli.ConfigureStatusCommand(app, p)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}
