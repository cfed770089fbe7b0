// Package api is a typed client for the WishKeeper REST surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
)

// ErrUnavailable means the server could not be reached at all.
var ErrUnavailable = errors.New("server unavailable")

// Error is a non-2xx answer from the server. It unwraps to the matching
// sentinel from internal/common so callers can use errors.Is.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return common.ErrValidation
	case http.StatusUnauthorized:
		return common.ErrInvalidToken
	case http.StatusForbidden:
		return common.ErrDenied
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusConflict:
		return common.ErrConflict
	default:
		return nil
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// SetToken sets the bearer token sent with every request; "" clears it.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Session is what a successful login yields.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (c *Client) Signup(ctx context.Context, username, email, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Login authenticates and remembers the returned token.
func (c *Client) Login(ctx context.Context, emailOrUsername, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"emailOrUsername": emailOrUsername,
		"password":        password,
	}, &s)
	if err != nil {
		return nil, err
	}
	c.token = s.Token
	return &s, nil
}

// Validate checks the current token and returns whom it belongs to.
func (c *Client) Validate(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, "/api/auth/validate", nil, &s); err != nil {
		return nil, err
	}
	s.Token = c.token
	return &s, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) ListWishlists(ctx context.Context) ([]*models.Wishlist, error) {
	var out []*models.Wishlist
	if err := c.do(ctx, http.MethodGet, "/api/wishlists", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetWishlist(ctx context.Context, id string) (*models.Wishlist, error) {
	return c.wishlist(ctx, http.MethodGet, wishlistPath(id), nil)
}

func (c *Client) CreateWishlist(ctx context.Context, d models.WishlistDraft) (*models.Wishlist, error) {
	return c.wishlist(ctx, http.MethodPost, "/api/wishlists", d)
}

func (c *Client) UpdateWishlist(ctx context.Context, id string, p models.WishlistPatch) (*models.Wishlist, error) {
	return c.wishlist(ctx, http.MethodPut, wishlistPath(id), p)
}

func (c *Client) DeleteWishlist(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, wishlistPath(id), nil, nil)
}

func (c *Client) AddProduct(ctx context.Context, wishlistID string, d models.ProductDraft) (*models.Wishlist, error) {
	return c.wishlist(ctx, http.MethodPost, wishlistPath(wishlistID)+"/products", d)
}

func (c *Client) UpdateProduct(ctx context.Context, wishlistID, productID string, p models.ProductPatch) (*models.Wishlist, error) {
	return c.wishlist(ctx, http.MethodPut, productPath(wishlistID, productID), p)
}

func (c *Client) RemoveProduct(ctx context.Context, wishlistID, productID string) (*models.Wishlist, error) {
	return c.wishlist(ctx, http.MethodDelete, productPath(wishlistID, productID), nil)
}

// Invite adds the user registered under email as a collaborator.
func (c *Client) Invite(ctx context.Context, wishlistID, email string) (*models.Wishlist, error) {
	var out struct {
		Wishlist *models.Wishlist `json:"wishlist"`
	}
	err := c.do(ctx, http.MethodPost, wishlistPath(wishlistID)+"/invite", map[string]string{"email": email}, &out)
	if err != nil {
		return nil, err
	}
	return out.Wishlist, nil
}

func (c *Client) wishlist(ctx context.Context, method, path string, in any) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := c.do(ctx, method, path, in, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func wishlistPath(id string) string {
	return "/api/wishlists/" + url.PathEscape(id)
}

func productPath(wishlistID, productID string) string {
	return wishlistPath(wishlistID) + "/products/" + url.PathEscape(productID)
}
