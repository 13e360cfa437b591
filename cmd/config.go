package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/coursedl/coursedl/common"
)

var (
	cfgSavePath      string
	cfgPDF           string
	cfgMaxConcurrent int

	configSetFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "save-path",
			Usage:       "default directory for downloaded course material",
			Destination: &cfgSavePath,
		},
		cli.StringFlag{
			Name:        "pdf",
			Usage:       "assemble slide decks into PDFs (on/off)",
			Destination: &cfgPDF,
		},
		cli.IntFlag{
			Name:        "max-concurrent",
			Usage:       "maximum number of tasks downloading at once",
			Destination: &cfgMaxConcurrent,
		},
	}
)

func configShow(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "config", "new_client", err)
		return nil
	}
	defer client.Close()

	cfg, err := client.GetConfig()
	if err != nil {
		printRuntimeErr(ctx, "config", "get_config", err)
		return nil
	}
	printConfig(cfg)
	return nil
}

func configSet(ctx *cli.Context) error {
	params := &common.SetConfigParams{}
	if ctx.IsSet("save-path") {
		params.SavePath = &cfgSavePath
	}
	if ctx.IsSet("pdf") {
		switch cfgPDF {
		case "on", "true", "1":
			v := true
			params.ToPDF = &v
		case "off", "false", "0":
			v := false
			params.ToPDF = &v
		default:
			return printErrWithCmdHelp(ctx, fmt.Errorf("invalid --pdf value %q, want on or off", cfgPDF))
		}
	}
	if ctx.IsSet("max-concurrent") {
		params.MaxConcurrent = &cfgMaxConcurrent
	}
	if params.SavePath == nil && params.ToPDF == nil && params.MaxConcurrent == nil {
		return printErrWithCmdHelp(ctx, fmt.Errorf("nothing to change"))
	}

	client, err := newClient()
	if err != nil {
		printRuntimeErr(ctx, "config", "new_client", err)
		return nil
	}
	defer client.Close()

	cfg, err := client.SetConfig(params)
	if err != nil {
		printRuntimeErr(ctx, "config", "set_config", err)
		return nil
	}
	printConfig(cfg)
	return nil
}

func printConfig(cfg *common.ConfigResponse) {
	pdf := "off"
	if cfg.ToPDF {
		pdf = "on"
	}
	fmt.Printf("save path\t: %s\nslide pdf\t: %s\nmax concurrent\t: %d\n",
		cfg.SavePath, pdf, cfg.MaxConcurrent)
}
