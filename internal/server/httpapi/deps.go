// Package httpapi is the REST boundary: it resolves bearer tokens, applies
// the authorization gate and maps domain errors to HTTP statuses.
package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/wishkeeper/internal/server/images"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
)

type Identity interface {
	Register(ctx context.Context, username, email, secret string) (*models.User, error)
	Authenticate(ctx context.Context, identifier, secret string) (string, *models.User, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type Wishlists interface {
	ListForUser(ctx context.Context, userID string) ([]*models.Wishlist, error)
	Get(ctx context.Context, id string) (*models.Wishlist, error)
	Create(ctx context.Context, draft models.WishlistDraft, ownerID string) (*models.Wishlist, error)
	Update(ctx context.Context, id string, patch models.WishlistPatch) (*models.Wishlist, error)
	Delete(ctx context.Context, id string) (bool, error)
	AddProduct(ctx context.Context, wishlistID string, draft models.ProductDraft, addedBy string) (*models.Wishlist, error)
	UpdateProduct(ctx context.Context, wishlistID, productID string, patch models.ProductPatch) (*models.Wishlist, error)
	RemoveProduct(ctx context.Context, wishlistID, productID string) (*models.Wishlist, error)
}

type Inviter interface {
	Invite(ctx context.Context, wishlistID, callerID, email string) (*models.Wishlist, error)
}

type ImagePresigner interface {
	PresignUpload(ctx context.Context, wishlistID, contentType string) (*images.Upload, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Metrics interface {
	RecordRequest(method, route string, status int, d time.Duration)
	RecordDenied(action string)
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(string, string, int, time.Duration) {}
func (nopMetrics) RecordDenied(string)                              {}
