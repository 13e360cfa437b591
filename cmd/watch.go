package cmd

import (
	"fmt"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/pkg/coursecli"
	"github.com/coursedl/coursedl/pkg/courselib"
)

// watch attaches to a task (or, without an id, to everything the
// daemon is running) and renders live progress bars.
func watch(ctx *cli.Context) error {
	id := ctx.Args().First()
	if id == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "watch", "new_client", err)
		return nil
	}
	defer client.Close()
	if _, err = client.Attach(id); err != nil {
		printRuntimeErr(ctx, "watch", "attach", err)
		return nil
	}
	return renderProgress(client, id)
}

// renderProgress consumes pushed progress updates and renders one bar
// per task. With a concrete id it returns when that task reaches a
// terminal state; attached to everything it runs until interrupted.
func renderProgress(client *coursecli.Client, id string) error {
	p := mpb.New(mpb.WithWidth(64))
	bars := make(map[string]*mpb.Bar)

	barStyle := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
	ensureBar := func(u *common.ProgressUpdate) *mpb.Bar {
		if b, ok := bars[u.Event.ID]; ok {
			return b
		}
		name := u.Task.Name
		if name == "" {
			name = u.Event.ID
		}
		var counters decor.Decorator
		if u.Task.Kind == "slides" {
			counters = decor.CountersNoUnit("%d/%d pages")
		} else {
			counters = decor.CountersKibiByte("% .2f / % .2f")
		}
		b := p.New(u.Event.TotalSize,
			barStyle,
			mpb.PrependDecorators(
				decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
				decor.Percentage(decor.WC{W: 6}),
			),
			mpb.AppendDecorators(counters),
		)
		bars[u.Event.ID] = b
		return b
	}

	client.Dispatcher().Register(common.UPDATE_PROGRESS, coursecli.NewProgressHandler(func(u *common.ProgressUpdate) error {
		b := ensureBar(u)
		if u.Event.TotalSize > 0 {
			b.SetTotal(u.Event.TotalSize, false)
		}
		b.SetCurrent(u.Event.DownloadedSize)
		switch u.Event.Status {
		case courselib.StatusDone:
			b.SetTotal(u.Event.TotalSize, true)
		case courselib.StatusFailed, courselib.StatusCanceled:
			b.Abort(false)
		}
		if id != "" && u.Event.ID == id && u.Event.Status.Terminal() {
			return coursecli.ErrDisconnect
		}
		return nil
	}))

	err := client.Listen()
	p.Wait()
	if err != nil {
		return err
	}
	if id != "" {
		fmt.Println()
	}
	return nil
}
