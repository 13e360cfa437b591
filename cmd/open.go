package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
)

var (
	openFolder bool

	openFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "folder, f",
			Usage:       "reveal the containing folder instead of the artifact",
			Destination: &openFolder,
		},
	}
)

func open(ctx *cli.Context) error {
	id := ctx.Args().First()
	if id == "" {
		return printErrWithCmdHelp(ctx, errors.New("no task id provided"))
	} else if id == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "open", "new_client", err)
		return nil
	}
	defer client.Close()

	resp, err := client.Open(id, openFolder)
	if err != nil {
		printRuntimeErr(ctx, "open", "open", err)
		return nil
	}
	fmt.Printf("Opened %s\n", resp.Path)
	return nil
}
