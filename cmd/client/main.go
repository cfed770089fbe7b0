package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/wishkeeper/internal/client/api"
	"github.com/dmitrijs2005/wishkeeper/internal/client/cli"
	"github.com/dmitrijs2005/wishkeeper/internal/client/config"
	"github.com/dmitrijs2005/wishkeeper/internal/client/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	cache, err := session.Open(ctx, cfg.SessionFile)
	if err != nil {
		log.Fatalf("error opening session cache: %v", err)
	}
	defer cache.Close()

	client := api.New(cfg.ServerURL, nil)
	app := cli.NewApp(client, cache, cfg.ServerURL, os.Stdin, os.Stdout)
	app.SetTimeout(cfg.RequestTimeout)
	app.Run(ctx)
}
