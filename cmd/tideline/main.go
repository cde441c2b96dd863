package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
)

type Globals struct {
	Config  string `help:"Path to the TOML config file." short:"c" type:"path" placeholder:"FILE"`
	EnvFile kongdotenv.ENVFileConfig `help:"Load environment variables from this .env file before reading config." name:"env-file" placeholder:"FILE"`
	Now     string `help:"Render as if it were this RFC3339 instant." placeholder:"TIME"`
}

type CLI struct {
	Globals

	Render RenderCmd `cmd:"" default:"1" help:"Fetch or reuse today's data, render, and present one frame."`
	Fetch  FetchCmd  `cmd:"" help:"Refresh the dataset caches and print record counts."`
	Run    RunCmd    `cmd:"" help:"Render on the configured cron schedule until interrupted."`
	Moon   MoonCmd   `cmd:"" help:"Write a strip of moon phases to a PNG."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("tideline"),
		kong.Description("Surf, tide and daylight timeline for low-refresh displays."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}
