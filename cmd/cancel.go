package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
)

var (
	cancelAll bool

	cancelFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "all, a",
			Usage:       "cancel every queued and running task",
			Destination: &cancelAll,
		},
	}
)

func cancel(ctx *cli.Context) error {
	id := ctx.Args().First()
	if id == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	if id == "" && !cancelAll {
		return printErrWithCmdHelp(ctx, errors.New("no task id provided"))
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "cancel", "new_client", err)
		return nil
	}
	defer client.Close()

	if cancelAll {
		if err = client.CancelAll(); err != nil {
			printRuntimeErr(ctx, "cancel", "cancel_all", err)
			return nil
		}
		fmt.Println("Canceled all tasks.")
		return nil
	}
	if err = client.Cancel(id); err != nil {
		printRuntimeErr(ctx, "cancel", "cancel", err)
		return nil
	}
	fmt.Printf("Canceled %s.\n", id)
	return nil
}
