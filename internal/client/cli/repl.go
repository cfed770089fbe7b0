package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dmitrijs2005/wishkeeper/internal/client/api"
	"github.com/dmitrijs2005/wishkeeper/internal/common"
)

type command struct {
	usage string
	help  string
	// args is the exact number of positional arguments.
	args  int
	login bool
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"register": {usage: "register", help: "create an account", run: (*App).Register},
	"login":    {usage: "login", help: "log in with email or username", run: (*App).Login},
	"logout":   {usage: "logout", help: "forget the cached login", login: true, run: (*App).Logout},
	"whoami":   {usage: "whoami", help: "show the current user", login: true, run: (*App).WhoAmI},
	"lists":    {usage: "lists", help: "list your wishlists", login: true, run: (*App).Lists},
	"show":     {usage: "show <id>", help: "show a wishlist with its products", args: 1, login: true, run: (*App).Show},
	"create":   {usage: "create", help: "create a wishlist", login: true, run: (*App).Create},
	"rename":   {usage: "rename <id>", help: "change title and description", args: 1, login: true, run: (*App).Rename},
	"delete":   {usage: "delete <id>", help: "delete a wishlist you own", args: 1, login: true, run: (*App).Delete},
	"add":      {usage: "add <id>", help: "add a product", args: 1, login: true, run: (*App).Add},
	"edit":     {usage: "edit <id> <productId>", help: "edit a product", args: 2, login: true, run: (*App).Edit},
	"remove":   {usage: "remove <id> <productId>", help: "remove a product", args: 2, login: true, run: (*App).Remove},
	"upload":   {usage: "upload <id> <file>", help: "upload a product image, prints its URL", args: 2, login: true, run: (*App).Upload},
	"invite":   {usage: "invite <id> <email>", help: "add a collaborator by email", args: 2, login: true, run: (*App).Invite},
}

func (a *App) help() {
	names := make([]string, 0, len(commands))
	for n, c := range commands {
		if c.login == a.isLoggedIn() {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	a.printf("Available commands:\n")
	for _, n := range names {
		a.printf("  %-24s %s\n", commands[n].usage, commands[n].help)
	}
	a.printf("  %-24s %s\n  %-24s %s\n", "help", "this text", "exit", "leave the program")
}

// runREPL reads commands line by line until EOF or "exit"/"quit".
func (a *App) runREPL(ctx context.Context) {
	for {
		a.printf("wk%s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			a.printf("\n")
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			a.help()
			continue
		case "exit", "quit":
			a.printf("Bye!\n")
			return
		}

		c, ok := commands[name]
		switch {
		case !ok:
			a.printf("Unknown command: %s\n", name)
		case c.login && !a.isLoggedIn():
			a.printf("Please log in first\n")
		case !c.login && a.isLoggedIn():
			a.printf("Already logged in as %s, logout first\n", a.state.Username)
		case len(args) != c.args:
			a.printf("Usage: %s\n", c.usage)
		default:
			a.report(ctx, c.run(a, ctx, args))
		}
	}
}

// report prints a command failure in user terms. A rejected token ends
// the session.
func (a *App) report(ctx context.Context, err error) {
	if err == nil {
		return
	}

	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrUnavailable):
		a.printf("Server unavailable, try again later\n")
	case errors.As(err, &apiErr) && errors.Is(err, common.ErrInvalidToken) && a.isLoggedIn():
		a.printf("Session expired, please log in again\n")
		a.dropSession(ctx)
	case errors.As(err, &apiErr):
		a.printf("Error: %s\n", apiErr.Message)
	default:
		a.printf("Error: %s\n", err)
	}
}

func (a *App) dropSession(ctx context.Context) {
	a.state = nil
	a.api.SetToken("")
	if err := a.sessions.Clear(ctx); err != nil {
		a.printf("%s\n", fmt.Errorf("clearing session: %w", err))
	}
}
