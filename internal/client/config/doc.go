// Package config loads runtime configuration for the WishKeeper CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Supported flags
//
//	-a string   base URL of the WishKeeper server
//	-f string   path of the local session database
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:8080",
//	  "session_file": "wishkeeper.db",
//	  "request_timeout": "15s"
//	}
package config
