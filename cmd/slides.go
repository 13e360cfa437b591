package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/coursedl/coursedl/pkg/courselib"
)

var (
	slidesNoPDF      bool
	slidesRedownload bool
	slidesWatch      bool

	slidesFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "no-pdf",
			Usage:       "keep the page images instead of assembling a PDF",
			Destination: &slidesNoPDF,
		},
		cli.BoolFlag{
			Name:        "redownload, r",
			Usage:       "fetch again even when the deck was already downloaded",
			Destination: &slidesRedownload,
		},
		cli.BoolFlag{
			Name:        "watch, w",
			Usage:       "stay attached and render download progress",
			Destination: &slidesWatch,
		},
	}
)

// slides submits a slide deck described by a JSON manifest. The
// manifest is the subject object the course platform exports: course
// and lecture names plus the list of page image URLs.
func slides(ctx *cli.Context) error {
	manifest := ctx.Args().First()
	if manifest == "" {
		return printErrWithCmdHelp(ctx, errors.New("no manifest file provided"))
	} else if manifest == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}

	raw, err := os.ReadFile(manifest)
	if err != nil {
		printRuntimeErr(ctx, "slides", "read_manifest", err)
		return nil
	}
	var sub courselib.Subject
	if err = json.Unmarshal(raw, &sub); err != nil {
		printRuntimeErr(ctx, "slides", "parse_manifest", err)
		return nil
	}
	if len(sub.SlideURLs) == 0 {
		return printErrWithCmdHelp(ctx, errors.New("manifest contains no slide page urls"))
	}

	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "slides", "new_client", err)
		return nil
	}
	defer client.Close()

	toPDF := !slidesNoPDF
	redownload := slidesRedownload
	if !redownload {
		exists, err := client.ExistsSlides(sub, toPDF)
		if err != nil {
			printRuntimeErr(ctx, "slides", "exists", err)
			return nil
		}
		if exists.Exists {
			if !confirm("This deck was already downloaded. Download again?") {
				fmt.Println("Skipped.")
				return nil
			}
			redownload = true
		}
	}

	d, err := client.AddSlides(sub, toPDF, redownload)
	if err != nil {
		printRuntimeErr(ctx, "slides", "add_slides", err)
		return nil
	}
	fmt.Printf("Queued %s (%d pages)\n  id: %s\n  save location: %s/\n", d.Name, d.TotalSize, d.ID, d.Path)

	if !slidesWatch {
		return nil
	}
	if _, err = client.Attach(d.ID); err != nil {
		printRuntimeErr(ctx, "slides", "attach", err)
		return nil
	}
	return renderProgress(client, d.ID)
}
