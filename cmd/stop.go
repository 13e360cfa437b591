package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/coursedl/coursedl/pkg/coursecli"
)

func stop(ctx *cli.Context) error {
	// Connect directly: no point spawning a daemon just to stop it.
	client, err := coursecli.NewClient()
	if err != nil {
		fmt.Println("Daemon is not running.")
		return nil
	}
	defer client.Close()

	if err = client.Stop(); err != nil {
		printRuntimeErr(ctx, "stop", "stop", err)
		return nil
	}
	fmt.Println("Daemon stopped.")
	return nil
}
