package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
)

var (
	retryAll bool

	retryFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "all, a",
			Usage:       "re-download every failed and canceled task",
			Destination: &retryAll,
		},
	}
)

func retry(ctx *cli.Context) error {
	id := ctx.Args().First()
	if id == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	if id == "" && !retryAll {
		return printErrWithCmdHelp(ctx, errors.New("no task id provided"))
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "retry", "new_client", err)
		return nil
	}
	defer client.Close()

	if retryAll {
		if err = client.RedownloadAll(); err != nil {
			printRuntimeErr(ctx, "retry", "retry_all", err)
			return nil
		}
		fmt.Println("Re-queued all failed and canceled tasks.")
		return nil
	}
	if err = client.Redownload(id); err != nil {
		printRuntimeErr(ctx, "retry", "retry", err)
		return nil
	}
	fmt.Printf("Re-queued %s.\n", id)
	return nil
}
