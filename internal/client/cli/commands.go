package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/wishkeeper/internal/client/session"
	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
)

func (a *App) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.timeout)
}

func (a *App) Register(ctx context.Context, _ []string) error {
	username, err := GetSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := a.password(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.call(ctx)
	defer cancel()

	if _, err := a.api.Signup(ctx, username, email, string(password)); err != nil {
		return err
	}
	a.printf("Registered %s, you can log in now\n", username)
	return nil
}

func (a *App) Login(ctx context.Context, _ []string) error {
	identifier, err := GetSimpleText(a.reader, "Enter email or username", a.out)
	if err != nil {
		return err
	}
	password, err := a.password(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	callCtx, cancel := a.call(ctx)
	defer cancel()

	s, err := a.api.Login(callCtx, identifier, string(password))
	if err != nil {
		return err
	}

	a.api.SetToken(s.Token)
	a.state = &session.State{Token: s.Token, UserID: s.UserID, Username: s.Username, Server: a.server}
	if err := a.sessions.Save(ctx, *a.state); err != nil {
		a.printf("Warning: login not cached: %v\n", err)
	}
	a.printf("Logged in as %s\n", s.Username)
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	a.dropSession(ctx)
	a.printf("Logged out\n")
	return nil
}

func (a *App) WhoAmI(ctx context.Context, _ []string) error {
	ctx, cancel := a.call(ctx)
	defer cancel()

	me, err := a.api.Validate(ctx)
	if err != nil {
		return err
	}
	a.printf("%s <%s> id=%s\n", me.Username, me.Email, me.UserID)
	return nil
}

func (a *App) Lists(ctx context.Context, _ []string) error {
	ctx, cancel := a.call(ctx)
	defer cancel()

	lists, err := a.api.ListWishlists(ctx)
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		a.printf("No wishlists yet, use 'create'\n")
		return nil
	}
	renderWishlists(a.out, lists, a.state.UserID)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	ctx, cancel := a.call(ctx)
	defer cancel()

	w, err := a.api.GetWishlist(ctx, args[0])
	if err != nil {
		return err
	}
	renderWishlist(a.out, w)
	return nil
}

func (a *App) Create(ctx context.Context, _ []string) error {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	description, err := GetSimpleText(a.reader, "Description", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.call(ctx)
	defer cancel()

	w, err := a.api.CreateWishlist(ctx, models.WishlistDraft{Title: title, Description: description})
	if err != nil {
		return err
	}
	a.printf("Created wishlist %s\n", w.ID)
	return nil
}

// Rename edits title and description; collaborators are sent back as they
// are, since an update replaces the whole set.
func (a *App) Rename(ctx context.Context, args []string) error {
	w, err := a.fetch(ctx, args[0])
	if err != nil {
		return err
	}

	title, err := GetTextDefault(a.reader, "Title", w.Title, a.out)
	if err != nil {
		return err
	}
	description, err := GetTextDefault(a.reader, "Description", w.Description, a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.call(ctx)
	defer cancel()

	_, err = a.api.UpdateWishlist(ctx, w.ID, models.WishlistPatch{
		Title:           title,
		Description:     description,
		CollaboratorIDs: w.CollaboratorIDs,
	})
	if err != nil {
		return err
	}
	a.printf("Updated\n")
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	answer, err := GetSimpleText(a.reader, fmt.Sprintf("Delete wishlist %s? (yes/no)", args[0]), a.out)
	if err != nil {
		return err
	}
	if answer != "yes" && answer != "y" {
		a.printf("Cancelled\n")
		return nil
	}

	ctx, cancel := a.call(ctx)
	defer cancel()

	if err := a.api.DeleteWishlist(ctx, args[0]); err != nil {
		return err
	}
	a.printf("Deleted\n")
	return nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	draft, err := a.readProduct(models.ProductDraft{})
	if err != nil {
		return err
	}

	ctx, cancel := a.call(ctx)
	defer cancel()

	w, err := a.api.AddProduct(ctx, args[0], draft)
	if err != nil {
		return err
	}
	a.printf("Added %s\n", w.Products[len(w.Products)-1].ID)
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	w, err := a.fetch(ctx, args[0])
	if err != nil {
		return err
	}
	i := w.ProductIndex(args[1])
	if i < 0 {
		return common.ErrProductNotFound
	}

	p := w.Products[i]
	patch, err := a.readProduct(models.ProductDraft{Name: p.Name, Price: p.Price, ImageURL: p.ImageURL})
	if err != nil {
		return err
	}

	ctx, cancel := a.call(ctx)
	defer cancel()

	if _, err := a.api.UpdateProduct(ctx, w.ID, p.ID, patch); err != nil {
		return err
	}
	a.printf("Updated\n")
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	ctx, cancel := a.call(ctx)
	defer cancel()

	if _, err := a.api.RemoveProduct(ctx, args[0], args[1]); err != nil {
		return err
	}
	a.printf("Removed\n")
	return nil
}

func (a *App) Invite(ctx context.Context, args []string) error {
	ctx, cancel := a.call(ctx)
	defer cancel()

	if _, err := a.api.Invite(ctx, args[0], args[1]); err != nil {
		return err
	}
	a.printf("Invited %s\n", args[1])
	return nil
}

func (a *App) fetch(ctx context.Context, id string) (*models.Wishlist, error) {
	ctx, cancel := a.call(ctx)
	defer cancel()
	return a.api.GetWishlist(ctx, id)
}

// readProduct prompts for every product field, offering cur as defaults.
func (a *App) readProduct(cur models.ProductDraft) (models.ProductDraft, error) {
	var d models.ProductDraft
	var err error

	if d.Name, err = GetTextDefault(a.reader, "Name", cur.Name, a.out); err != nil {
		return d, err
	}
	if d.Price, err = GetPrice(a.reader, "Price", cur.Price, a.out); err != nil {
		return d, err
	}
	if d.ImageURL, err = GetTextDefault(a.reader, "Image URL", cur.ImageURL, a.out); err != nil {
		return d, err
	}
	return d, nil
}

// maxImageSize caps local files offered for upload.
const maxImageSize = 10 << 20

// Upload stores a local image in object storage and prints the URL to use
// as a product's image URL.
func (a *App) Upload(ctx context.Context, args []string) error {
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	if len(data) > maxImageSize {
		return fmt.Errorf("%s is larger than %d bytes", args[1], maxImageSize)
	}
	contentType := http.DetectContentType(data)

	ctx, cancel := a.call(ctx)
	defer cancel()

	up, err := a.api.PresignImage(ctx, args[0], contentType)
	if err != nil {
		return err
	}
	if err := a.api.UploadImage(ctx, up.UploadURL, contentType, data); err != nil {
		return err
	}
	a.printf("Uploaded, image URL: %s\n", up.ImageURL)
	return nil
}
