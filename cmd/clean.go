package cmd

import (
	"fmt"

	"github.com/urfave/cli"
)

func clean(ctx *cli.Context) error {
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "clean", "new_client", err)
		return nil
	}
	defer client.Close()

	if err = client.CleanUp(); err != nil {
		printRuntimeErr(ctx, "clean", "clean_up", err)
		return nil
	}
	fmt.Println("Task history cleaned up.")
	return nil
}
