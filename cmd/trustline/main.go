package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "trustline",
		Usage: "Employment reputation and verification service",
		Commands: []*cli.Command{
			serveCommand,
			purgeCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
