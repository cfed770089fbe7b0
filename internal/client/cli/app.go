package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/wishkeeper/internal/client/api"
	"github.com/dmitrijs2005/wishkeeper/internal/client/session"
	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
)

// API is the part of the REST client the commands use.
type API interface {
	SetToken(token string)
	Signup(ctx context.Context, username, email, password string) (*api.Session, error)
	Login(ctx context.Context, emailOrUsername, password string) (*api.Session, error)
	Validate(ctx context.Context) (*api.Session, error)
	ListWishlists(ctx context.Context) ([]*models.Wishlist, error)
	GetWishlist(ctx context.Context, id string) (*models.Wishlist, error)
	CreateWishlist(ctx context.Context, d models.WishlistDraft) (*models.Wishlist, error)
	UpdateWishlist(ctx context.Context, id string, p models.WishlistPatch) (*models.Wishlist, error)
	DeleteWishlist(ctx context.Context, id string) error
	AddProduct(ctx context.Context, wishlistID string, d models.ProductDraft) (*models.Wishlist, error)
	UpdateProduct(ctx context.Context, wishlistID, productID string, p models.ProductPatch) (*models.Wishlist, error)
	RemoveProduct(ctx context.Context, wishlistID, productID string) (*models.Wishlist, error)
	Invite(ctx context.Context, wishlistID, email string) (*models.Wishlist, error)
	PresignImage(ctx context.Context, wishlistID, contentType string) (*api.ImageUpload, error)
	UploadImage(ctx context.Context, uploadURL, contentType string, data []byte) error
}

// Sessions persists the login between runs.
type Sessions interface {
	Load(ctx context.Context) (*session.State, error)
	Save(ctx context.Context, s session.State) error
	Clear(ctx context.Context) error
}

type App struct {
	api      API
	sessions Sessions
	server   string
	state    *session.State

	reader *bufio.Reader
	out    io.Writer
	// password is a seam over the no-echo terminal prompt.
	password func(w io.Writer) ([]byte, error)
	timeout  time.Duration
}

func NewApp(client API, sessions Sessions, server string, in io.Reader, out io.Writer) *App {
	return &App{
		api:      client,
		sessions: sessions,
		server:   server,
		reader:   bufio.NewReader(in),
		out:      out,
		password: GetPassword,
		timeout:  15 * time.Second,
	}
}

func (a *App) isLoggedIn() bool {
	return a.state != nil
}

func (a *App) getStatus() string {
	if a.state == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.state.Username)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Resume restores a cached login for the same server. A token the server
// rejects is dropped; an unreachable server keeps it for later.
func (a *App) Resume(ctx context.Context) error {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if s == nil || s.Server != a.server {
		return nil
	}

	a.api.SetToken(s.Token)
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	me, err := a.api.Validate(ctx)
	switch {
	case err == nil:
		s.Username = me.Username
		s.UserID = me.UserID
		a.state = s
		a.printf("Logged in as %s\n", s.Username)
	case errors.Is(err, api.ErrUnavailable):
		a.state = s
		a.printf("Server unavailable, keeping cached login for %s\n", s.Username)
	case errors.Is(err, common.ErrInvalidToken):
		a.api.SetToken("")
		return a.sessions.Clear(ctx)
	default:
		return err
	}
	return nil
}

// Run resumes a cached session and starts the REPL. It returns when the
// input ends or the user exits.
func (a *App) Run(ctx context.Context) {
	a.printf("Welcome to WishKeeper CLI (type 'help' for commands)\n")
	if err := a.Resume(ctx); err != nil {
		a.printf("Could not restore session: %v\n", err)
	}
	a.runREPL(ctx)
}

// SetTimeout bounds each request to the server; non-positive is ignored.
func (a *App) SetTimeout(d time.Duration) {
	if d > 0 {
		a.timeout = d
	}
}
