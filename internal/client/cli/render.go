package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/wishkeeper/internal/server/models"
	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	return t
}

func renderWishlists(w io.Writer, lists []*models.Wishlist, me string) {
	t := newTable(w, "ID", "Title", "Owner", "Role", "Products")
	for _, l := range lists {
		role := "collaborator"
		if l.IsOwner(me) {
			role = "owner"
		}
		t.Append([]string{l.ID, l.Title, l.OwnerUsername, role, strconv.Itoa(len(l.Products))})
	}
	t.Render()
}

func renderWishlist(w io.Writer, l *models.Wishlist) {
	fmt.Fprintf(w, "%s (%s)\n", l.Title, l.ID)
	if l.Description != "" {
		fmt.Fprintf(w, "%s\n", l.Description)
	}
	fmt.Fprintf(w, "Owner: %s, collaborators: %d\n", l.OwnerUsername, len(l.CollaboratorIDs))

	if len(l.Products) == 0 {
		fmt.Fprintln(w, "No products")
		return
	}

	t := newTable(w, "ID", "Name", "Price", "Added by", "Image")
	for _, p := range l.Products {
		t.Append([]string{p.ID, p.Name, strconv.FormatFloat(p.Price, 'f', 2, 64), p.AddedByUsername, p.ImageURL})
	}
	t.Render()
}
