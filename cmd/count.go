package cmd

import (
	"fmt"

	"github.com/urfave/cli"
)

func count(ctx *cli.Context) error {
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "count", "new_client", err)
		return nil
	}
	defer client.Close()

	resp, err := client.Count()
	if err != nil {
		printRuntimeErr(ctx, "count", "count", err)
		return nil
	}
	fmt.Printf("%d task(s) running or queued.\n", resp.Count)
	return nil
}
