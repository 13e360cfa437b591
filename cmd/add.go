package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/coursedl/coursedl/pkg/courselib"
)

var (
	addFileName   string
	addCourseName string
	addPath       string
	addUploadID   int64
	addRefID      int64
	addSize       int64
	addSync       bool
	addRedownload bool
	addWatch      bool

	addFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "file-name, o",
			Usage:       "name of the file (reported by the server if not specified)",
			Destination: &addFileName,
		},
		cli.StringFlag{
			Name:        "course, c",
			Usage:       "course the file belongs to",
			Destination: &addCourseName,
		},
		cli.StringFlag{
			Name:        "download-path, l",
			Usage:       "directory to save the file in (daemon default if not specified)",
			Destination: &addPath,
		},
		cli.Int64Flag{
			Name:        "upload-id",
			Usage:       "upload identifier from the course platform",
			Destination: &addUploadID,
		},
		cli.Int64Flag{
			Name:        "reference-id",
			Usage:       "reference identifier from the course platform",
			Destination: &addRefID,
		},
		cli.Int64Flag{
			Name:        "size",
			Usage:       "expected file size in bytes, used when the server reports none",
			Destination: &addSize,
		},
		cli.BoolFlag{
			Name:        "sync, s",
			Usage:       "skip the transfer when the file already exists with a matching size",
			Destination: &addSync,
		},
		cli.BoolFlag{
			Name:        "redownload, r",
			Usage:       "fetch again even when the task was already downloaded",
			Destination: &addRedownload,
		},
		cli.BoolFlag{
			Name:        "watch, w",
			Usage:       "stay attached and render download progress",
			Destination: &addWatch,
		},
	}
)

func add(ctx *cli.Context) error {
	url := ctx.Args().First()
	if url == "" {
		return printErrWithCmdHelp(ctx, errors.New("no url provided"))
	} else if url == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "add", "new_client", err)
		return nil
	}
	defer client.Close()

	u := courselib.Upload{
		ID:          addUploadID,
		ReferenceID: addRefID,
		FileName:    addFileName,
		CourseName:  addCourseName,
		URL:         strings.TrimSpace(url),
		Path:        addPath,
		Size:        addSize,
	}

	redownload := addRedownload
	if !redownload {
		exists, err := client.ExistsFile(u, addSync)
		if err != nil {
			printRuntimeErr(ctx, "add", "exists", err)
			return nil
		}
		if exists.Exists {
			if !confirm("This file was already downloaded. Download again?") {
				fmt.Println("Skipped.")
				return nil
			}
			redownload = true
		}
	}

	d, err := client.AddFile(u, addSync, redownload)
	if err != nil {
		printRuntimeErr(ctx, "add", "add_file", err)
		return nil
	}
	fmt.Printf("Queued %s\n  id: %s\n  save location: %s/\n", d.Name, d.ID, d.Path)

	if !addWatch {
		return nil
	}
	if _, err = client.Attach(d.ID); err != nil {
		printRuntimeErr(ctx, "add", "attach", err)
		return nil
	}
	return renderProgress(client, d.ID)
}

// confirm prompts for a yes/no answer, defaulting to no.
func confirm(question string) bool {
	fmt.Printf("%s (y/N): ", question)
	var answer string
	_, _ = fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
