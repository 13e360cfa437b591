package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"

	"github.com/coursedl/coursedl/pkg/courselib"
)

func list(ctx *cli.Context) error {
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "list", "new_client", err)
		return nil
	}
	defer client.Close()

	resp, err := client.List()
	if err != nil {
		printRuntimeErr(ctx, "list", "list", err)
		return nil
	}
	if len(resp.Tasks) == 0 {
		fmt.Println("No tasks in history.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tSTATUS\tPROGRESS\tSIZE\tINFO")
	for _, t := range resp.Tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
			t.ID,
			t.Kind,
			t.Name,
			t.Status,
			t.Progress*100,
			sizeColumn(t),
			t.Description,
		)
	}
	return w.Flush()
}

func sizeColumn(t courselib.TaskSnapshot) string {
	if t.Kind == "slides" {
		return fmt.Sprintf("%d pages", t.TotalSize)
	}
	if t.TotalSize <= 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(t.TotalSize))
}
