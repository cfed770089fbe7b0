// Package identity registers users, checks their credentials and resolves
// bearer tokens back to users.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/logging"
	"github.com/dmitrijs2005/wishkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
	"github.com/dmitrijs2005/wishkeeper/internal/server/records"
	"github.com/google/uuid"
)

// Collection is the record collection holding users. Email and username
// are unique within it.
const Collection = "users"

// UniqueFields declares the constraints a memory store must enforce for
// this collection.
var UniqueFields = []records.UniqueField{
	{Collection: Collection, Field: "email"},
	{Collection: Collection, Field: "username"},
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
	Parse(token string) (string, error)
}

// userRecord is the stored form of a user. PasswordHash never leaves this
// package.
type userRecord struct {
	models.User
	PasswordHash string `json:"passwordHash"`
}

type Registry struct {
	users  records.Collection[userRecord]
	hasher credentials.Hasher
	tokens TokenIssuer
	log    logging.Logger
	now    func() time.Time

	// dummyHash is verified against when the identifier matches nobody, so
	// a miss costs about as much as a wrong secret.
	dummyHash string
}

func NewRegistry(store records.Store, hasher credentials.Hasher, tokens TokenIssuer, log logging.Logger) (*Registry, error) {
	dummy, err := hasher.Hash(common.GenerateRandByteArray(16))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}
	return &Registry{
		users:     records.NewCollection[userRecord](store, Collection),
		hasher:    hasher,
		tokens:    tokens,
		log:       log.With("module", "identity"),
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// Register creates a user. Email and username must both be unused;
// otherwise common.ErrConflict is returned and nothing is written.
func (r *Registry) Register(ctx context.Context, username, email, secret string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || secret == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", common.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", common.ErrValidation)
	}

	for _, c := range []records.Condition{records.Eq("email", email), records.Eq("username", username)} {
		_, err := r.users.FindOne(ctx, records.Where(c))
		if err == nil {
			return nil, common.ErrConflict
		}
		if !errors.Is(err, records.ErrNotFound) {
			return nil, common.StorageError(err)
		}
	}

	hash, err := r.hasher.Hash([]byte(secret))
	if errors.Is(err, common.ErrValidation) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	rec := &userRecord{
		User: models.User{
			ID:        uuid.NewString(),
			Username:  username,
			Email:     email,
			CreatedAt: r.now().UTC(),
		},
		PasswordHash: hash,
	}

	if err := r.users.Put(ctx, rec.ID, rec); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, records.ErrDuplicate) {
			return nil, common.ErrConflict
		}
		return nil, common.StorageError(err)
	}

	r.log.Info(ctx, "user registered", "user_id", rec.ID, "username", rec.Username)
	u := rec.User
	return &u, nil
}

// Authenticate matches identifier against emails first and usernames
// second, then checks the secret. Every failure looks the same to the
// caller: common.ErrInvalidCredentials.
func (r *Registry) Authenticate(ctx context.Context, identifier, secret string) (string, *models.User, error) {
	identifier = strings.TrimSpace(identifier)

	rec, err := r.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			r.hasher.Verify([]byte(secret), r.dummyHash)
			return "", nil, common.ErrInvalidCredentials
		}
		return "", nil, common.StorageError(err)
	}

	if !r.hasher.Verify([]byte(secret), rec.PasswordHash) {
		r.log.Debug(ctx, "authentication failed", "user_id", rec.ID)
		return "", nil, common.ErrInvalidCredentials
	}

	token, err := r.tokens.Issue(rec.ID)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", common.ErrInternal, err)
	}

	u := rec.User
	return token, &u, nil
}

func (r *Registry) lookup(ctx context.Context, identifier string) (*userRecord, error) {
	if identifier == "" {
		return nil, records.ErrNotFound
	}
	rec, err := r.users.FindOne(ctx, records.Where(records.Eq("email", identifier)))
	if err == nil || !errors.Is(err, records.ErrNotFound) {
		return rec, err
	}
	return r.users.FindOne(ctx, records.Where(records.Eq("username", identifier)))
}

// Resolve maps a bearer token to its user. Tokens that fail verification or
// name a user that no longer exists yield common.ErrInvalidToken.
func (r *Registry) Resolve(ctx context.Context, token string) (*models.User, error) {
	userID, err := r.tokens.Parse(token)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	u, err := r.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (r *Registry) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, common.ErrUserNotFound
	}
	rec, err := r.users.FindOne(ctx, records.Where(records.Eq("email", email)))
	return r.public(rec, err)
}

func (r *Registry) FindByID(ctx context.Context, id string) (*models.User, error) {
	rec, err := r.users.Get(ctx, id)
	return r.public(rec, err)
}

func (r *Registry) public(rec *userRecord, err error) (*models.User, error) {
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.StorageError(err)
	}
	u := rec.User
	return &u, nil
}
