package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/logging"
	"github.com/dmitrijs2005/wishkeeper/internal/server/access"
	"github.com/dmitrijs2005/wishkeeper/internal/server/images"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type handler struct {
	deps Deps
	log  logging.Logger
}

// decode reads a JSON body into v. Unknown fields are ignored so clients
// may send back whole wishlist documents. An empty body is an error unless
// optional is set.
func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(r.Context(), h.log, w, err)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health != nil {
		if err := h.deps.Health.Ping(r.Context()); err != nil {
			h.log.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	Message  string `json:"message,omitempty"`
	Token    string `json:"token,omitempty"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.deps.Identity.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		Message:  "User registered successfully",
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	})
}

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	token, u, err := h.deps.Identity.Authenticate(r.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		Token:    token,
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
	})
}

func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, userResponse{UserID: u.ID, Username: u.Username, Email: u.Email})
}

func (h *handler) listWishlists(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	lists, err := h.deps.Wishlists.ListForUser(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *handler) createWishlist(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var draft models.WishlistDraft
	if err := decode(w, r, &draft, false); err != nil {
		h.fail(w, r, err)
		return
	}

	wl, err := h.deps.Wishlists.Create(r.Context(), draft, u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wl)
}

// authorized loads the wishlist named in the path and checks that the
// caller may perform action on it. A missing wishlist is reported as such,
// before any permission check.
func (h *handler) authorized(r *http.Request, action access.Action) (*models.Wishlist, *models.User, error) {
	u, _ := UserFromContext(r.Context())

	wl, err := h.deps.Wishlists.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}

	if err := access.Authorize(u.ID, wl, action); err != nil {
		h.deps.Metrics.RecordDenied(action.String())
		h.log.Info(r.Context(), "access denied", "user_id", u.ID, "wishlist_id", wl.ID, "action", action.String())
		return nil, nil, err
	}
	return wl, u, nil
}

func (h *handler) getWishlist(w http.ResponseWriter, r *http.Request) {
	wl, _, err := h.authorized(r, access.ActionView)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (h *handler) updateWishlist(w http.ResponseWriter, r *http.Request) {
	wl, _, err := h.authorized(r, access.ActionUpdate)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var patch models.WishlistPatch
	if err := decode(w, r, &patch, false); err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.deps.Wishlists.Update(r.Context(), wl.ID, patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteWishlist(w http.ResponseWriter, r *http.Request) {
	wl, _, err := h.authorized(r, access.ActionDelete)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ok, err := h.deps.Wishlists.Delete(r.Context(), wl.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		h.fail(w, r, common.ErrWishlistNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) addProduct(w http.ResponseWriter, r *http.Request) {
	wl, u, err := h.authorized(r, access.ActionAddProduct)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var draft models.ProductDraft
	if err := decode(w, r, &draft, false); err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.deps.Wishlists.AddProduct(r.Context(), wl.ID, draft, u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, updated)
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	wl, _, err := h.authorized(r, access.ActionUpdateProduct)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var patch models.ProductPatch
	if err := decode(w, r, &patch, false); err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.deps.Wishlists.UpdateProduct(r.Context(), wl.ID, chi.URLParam(r, "productId"), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) removeProduct(w http.ResponseWriter, r *http.Request) {
	wl, _, err := h.authorized(r, access.ActionRemoveProduct)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.deps.Wishlists.RemoveProduct(r.Context(), wl.ID, chi.URLParam(r, "productId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type imageUploadRequest struct {
	ContentType string `json:"contentType"`
}

func (h *handler) presignImage(w http.ResponseWriter, r *http.Request) {
	wl, _, err := h.authorized(r, access.ActionAddProduct)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.deps.Images == nil {
		h.fail(w, r, images.ErrDisabled)
		return
	}

	var req imageUploadRequest
	if err := decode(w, r, &req, true); err != nil {
		h.fail(w, r, err)
		return
	}

	up, err := h.deps.Images.PresignUpload(r.Context(), wl.ID, req.ContentType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, up)
}

type inviteRequest struct {
	Email string `json:"email"`
}

type inviteResponse struct {
	Message  string           `json:"message"`
	Wishlist *models.Wishlist `json:"wishlist"`
}

func (h *handler) invite(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req inviteRequest
	if err := decode(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	wl, err := h.deps.Invitations.Invite(r.Context(), chi.URLParam(r, "id"), u.ID, req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, inviteResponse{
		Message:  fmt.Sprintf("User %s invited to wishlist.", req.Email),
		Wishlist: wl,
	})
}
