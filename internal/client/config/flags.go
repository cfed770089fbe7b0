package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/wishkeeper/internal/flagx"
)

func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server base URL")
	fs.StringVar(&cfg.SessionFile, "f", cfg.SessionFile, "session database file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
