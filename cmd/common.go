package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/urfave/cli"

	"github.com/coursedl/coursedl/pkg/coursecli"
)

// newClient connects to the daemon, starting it when it is not running.
func newClient() (*coursecli.Client, error) {
	if err := coursecli.EnsureDaemon(); err != nil {
		return nil, err
	}
	return coursecli.NewClient()
}

func help(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" || arg == "help" {
		fmt.Printf("%s %s\n", ctx.App.Name, ctx.App.Version)
		cli.ShowAppHelpAndExit(ctx, 0)
		return nil
	}
	return cli.ShowCommandHelp(ctx, arg)
}

func getVersion(ctx *cli.Context) error {
	fmt.Printf(
		"%s %s (%s_%s)\nBuild: %s=%s\n",
		ctx.App.Name,
		ctx.App.Version,
		runtime.GOOS,
		runtime.GOARCH,
		date, commit,
	)
	return nil
}

func printRuntimeErr(ctx *cli.Context, cmd, action string, err error) {
	if err == nil {
		return
	}
	var name string
	if ctx != nil {
		name = ctx.App.HelpName
	} else {
		name = os.Args[0]
	}
	fmt.Printf("%s: %s[%s]: %s\n", name, cmd, action, err.Error())
}

func printErrWithCmdHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(ctx, err, func() {
		if herr := cli.ShowCommandHelp(ctx, ctx.Command.Name); herr != nil {
			fmt.Println(herr.Error())
		}
	})
}

func printErrWithHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(ctx, err, func() {
		cli.ShowAppHelpAndExit(ctx, 1)
	})
}

func printErrWithCallback(ctx *cli.Context, err error, callback func()) error {
	if err == nil {
		return nil
	}
	estr := strings.ToLower(err.Error())
	if estr == "flag: help requested" {
		return help(ctx)
	}
	fmt.Printf("%s: %s\n\n", ctx.App.HelpName, err.Error())
	callback()
	return nil
}

func usageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name != "" {
		return printErrWithCmdHelp(ctx, err)
	}
	return printErrWithHelp(ctx, err)
}
