package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/wishkeeper/internal/client/api"
	"github.com/dmitrijs2005/wishkeeper/internal/client/session"
	"github.com/dmitrijs2005/wishkeeper/internal/logging"
	"github.com/dmitrijs2005/wishkeeper/internal/server/auth"
	"github.com/dmitrijs2005/wishkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/wishkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/wishkeeper/internal/server/identity"
	"github.com/dmitrijs2005/wishkeeper/internal/server/images"
	"github.com/dmitrijs2005/wishkeeper/internal/server/invitations"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
	"github.com/dmitrijs2005/wishkeeper/internal/server/records"
	"github.com/dmitrijs2005/wishkeeper/internal/server/wishlists"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// bucket stands in for object storage behind presigned URLs.
type bucket struct {
	srv     *httptest.Server
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *bucket) object(key string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.objects[key]
}

func (b *bucket) PresignUpload(_ context.Context, wishlistID, contentType string) (*images.Upload, error) {
	key := "wishlists/" + wishlistID + "/img"
	return &images.Upload{Key: key, UploadURL: b.srv.URL + "/" + key, ImageURL: "http://cdn.test/" + key}, nil
}

type env struct {
	bucket   *bucket
	srv      *httptest.Server
	sessions *session.Cache
	lists    *wishlists.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := records.NewMemoryStore(identity.UniqueFields...)
	reg, err := identity.NewRegistry(store, credentials.NewBcrypt(bcrypt.MinCost), auth.NewIssuer([]byte("k"), 0), logging.Nop{})
	require.NoError(t, err)
	lists := wishlists.NewStore(store, reg, nil, logging.Nop{})

	b := &bucket{objects: map[string][]byte{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.objects[strings.TrimPrefix(r.URL.Path, "/")] = data
	}))
	t.Cleanup(b.srv.Close)

	srv := httptest.NewServer(httpapi.NewRouter(httpapi.Deps{
		Identity:    reg,
		Wishlists:   lists,
		Invitations: invitations.NewFlow(lists, reg, logging.Nop{}, nil),
		Images:      b,
		Health:      store,
	}))
	t.Cleanup(srv.Close)

	cache, err := session.Open(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return &env{bucket: b, srv: srv, sessions: cache, lists: lists}
}

// run feeds script to a fresh App and returns everything it printed.
func (e *env) run(t *testing.T, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	a := NewApp(api.New(e.srv.URL, nil), e.sessions, e.srv.URL, strings.NewReader(strings.Join(script, "\n")+"\n"), &out)
	a.password = func(io.Writer) ([]byte, error) { return []byte("secret"), nil }
	a.Run(context.Background())
	return out.String()
}

func (e *env) ownedBy(t *testing.T, userID string) []*models.Wishlist {
	t.Helper()
	l, err := e.lists.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	return l
}

func TestCLI_RegisterLoginCreate(t *testing.T) {
	e := newEnv(t)

	out := e.run(t,
		"lists",
		"register", "ann", "ann@example.com",
		"login", "ann",
		"create", "Birthday", "Things I want",
		"lists",
		"whoami",
	)

	assert.Contains(t, out, "Please log in first")
	assert.Contains(t, out, "Registered ann")
	assert.Contains(t, out, "Logged in as ann")
	assert.Contains(t, out, "Created wishlist")
	assert.Contains(t, out, "Birthday")
	assert.Contains(t, out, "owner")
	assert.Contains(t, out, "ann <ann@example.com>")

	st, err := e.sessions.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "ann", st.Username)
	assert.Equal(t, e.srv.URL, st.Server)
}

func TestCLI_ResumesCachedSession(t *testing.T) {
	e := newEnv(t)
	e.run(t, "register", "ann", "ann@example.com", "login", "ann@example.com")

	out := e.run(t, "whoami", "logout", "lists")
	assert.Contains(t, out, "Logged in as ann")
	assert.Contains(t, out, "ann <ann@example.com>")
	assert.Contains(t, out, "Logged out")
	assert.Contains(t, out, "Please log in first")

	st, err := e.sessions.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestCLI_RejectedCachedTokenIsDropped(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.sessions.Save(context.Background(), session.State{Token: "garbage", Username: "ghost", Server: e.srv.URL}))

	out := e.run(t, "whoami")
	assert.Contains(t, out, "Please log in first")

	st, err := e.sessions.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestCLI_ProductsAndSharing(t *testing.T) {
	e := newEnv(t)
	e.run(t, "register", "bob", "bob@example.com")
	e.run(t, "register", "ann", "ann@example.com", "login", "ann", "create", "Trip", "")

	st, err := e.sessions.Load(context.Background())
	require.NoError(t, err)
	lists := e.ownedBy(t, st.UserID)
	require.Len(t, lists, 1)
	id := lists[0].ID

	out := e.run(t,
		"add "+id, "Tent", "120.50", "",
		"add "+id, "Stove", "abc", "",
		"invite "+id+" bob@example.com",
		"invite "+id+" bob@example.com",
		"invite "+id+" nobody@example.com",
		"show "+id,
	)
	assert.Contains(t, out, "Added")
	assert.Contains(t, out, `invalid price "abc"`)
	assert.Contains(t, out, "Invited bob@example.com")
	assert.Contains(t, out, "already a member")
	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, "Tent")
	assert.Contains(t, out, "120.50")

	w, err := e.lists.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, w.Products, 1)
	pid := w.Products[0].ID

	out = e.run(t,
		"edit "+id+" "+pid, "", "99", "",
		"edit "+id+" nope",
		"rename "+id, "Summer trip", "",
		"remove "+id+" "+pid,
		"delete "+id, "no",
		"delete "+id, "yes",
		"show "+id,
	)
	assert.Contains(t, out, "Updated")
	assert.Contains(t, out, "product not found")
	assert.Contains(t, out, "Removed")
	assert.Contains(t, out, "Cancelled")
	assert.Contains(t, out, "Deleted")
	assert.Contains(t, out, "wishlist not found")
}

func TestCLI_Dispatch(t *testing.T) {
	e := newEnv(t)

	out := e.run(t, "", "help", "frobnicate", "show", "logout", "exit", "lists")
	assert.Contains(t, out, "register")
	assert.NotContains(t, out, "invite <id> <email>")
	assert.Contains(t, out, "Unknown command: frobnicate")
	assert.Contains(t, out, "Please log in first")
	assert.Contains(t, out, "Bye!")
	// nothing after exit is executed
	assert.Equal(t, 2, strings.Count(out, "Please log in first"))
}

func TestCLI_ServerUnavailable(t *testing.T) {
	e := newEnv(t)
	e.run(t, "register", "ann", "ann@example.com", "login", "ann")
	e.srv.Close()

	out := e.run(t, "lists")
	assert.Contains(t, out, "Server unavailable, keeping cached login for ann")
	assert.Contains(t, out, "Server unavailable, try again later")
}

func TestCLI_Upload(t *testing.T) {
	e := newEnv(t)
	e.run(t, "register", "ann", "ann@example.com", "login", "ann", "create", "Gifts", "")

	st, err := e.sessions.Load(context.Background())
	require.NoError(t, err)
	id := e.ownedBy(t, st.UserID)[0].ID

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	file := filepath.Join(t.TempDir(), "kite.png")
	require.NoError(t, os.WriteFile(file, png, 0o600))

	out := e.run(t,
		"upload "+id+" "+file,
		"upload "+id+" "+filepath.Join(t.TempDir(), "missing.png"),
	)
	assert.Contains(t, out, "image URL: http://cdn.test/wishlists/"+id+"/img")
	assert.Equal(t, png, e.bucket.object("wishlists/"+id+"/img"))
	assert.Contains(t, out, "no such file")
}
