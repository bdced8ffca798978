// ai-relay serves a browser chat frontend and relays its requests to an
// OpenAI-compatible chat collaborator (streamed) and image collaborator.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is not an error
	_ = godotenv.Load()

	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name("ai-relay"),
		kong.Description("Streaming chat and image relay"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	config, err := cli.Config()
	cmd.FatalIfErrorf(err)

	server, err := BuildServer(config)
	cmd.FatalIfErrorf(err)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := server.ListenAndServeWithGracefulShutdown(ctx.Done()); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
}
