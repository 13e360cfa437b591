// Package cmd implements the coursedl command line interface and the
// coursed daemon bootstrap.
package cmd

import (
	"github.com/urfave/cli"
)

// Execute runs the CLI with the given arguments.
func Execute(args []string) error {
	app := cli.App{
		Name:         "coursedl",
		HelpName:     "coursedl",
		Usage:        "A course material download manager.",
		Version:      version,
		UsageText:    "coursedl <command> [arguments...]",
		OnUsageError: usageErrorCallback,
		Commands: []cli.Command{
			{
				Name:   "daemon",
				Usage:  "run the coursed daemon in the foreground",
				Action: daemon,
				Flags:  daemonFlags,
			},
			{
				Name:                   "add",
				Aliases:                []string{"a"},
				Usage:                  "download a course file",
				Action:                 add,
				OnUsageError:           usageErrorCallback,
				Flags:                  addFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:                   "slides",
				Aliases:                []string{"s"},
				Usage:                  "download a lecture slide deck from a manifest",
				Action:                 slides,
				OnUsageError:           usageErrorCallback,
				Flags:                  slidesFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:                   "list",
				Aliases:                []string{"l"},
				Usage:                  "display the task history",
				Action:                 list,
				OnUsageError:           usageErrorCallback,
				UseShortOptionHandling: true,
			},
			{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "attach to running tasks and render progress",
				Action:  watch,
			},
			{
				Name:   "cancel",
				Usage:  "cancel a task by id",
				Action: cancel,
				Flags:  cancelFlags,
			},
			{
				Name:   "retry",
				Usage:  "re-download a failed or canceled task",
				Action: retry,
				Flags:  retryFlags,
			},
			{
				Name:    "open",
				Aliases: []string{"o"},
				Usage:   "reveal a finished task's artifact",
				Action:  open,
				Flags:   openFlags,
			},
			{
				Name:   "count",
				Usage:  "print the number of running and queued tasks",
				Action: count,
			},
			{
				Name:   "clean",
				Usage:  "drop the daemon's task history",
				Action: clean,
			},
			{
				Name:   "config",
				Usage:  "show or change daemon settings",
				Action: configShow,
				Subcommands: []cli.Command{
					{
						Name:   "set",
						Usage:  "change daemon settings",
						Action: configSet,
						Flags:  configSetFlags,
					},
				},
			},
			{
				Name:   "stop",
				Usage:  "stop the daemon",
				Action: stop,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  help,
			},
			{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "prints the installed version",
				Action:  getVersion,
			},
		},
		HideHelp:    true,
		HideVersion: true,
	}
	return app.Run(args)
}
