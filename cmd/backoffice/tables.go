package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/opticshop/backend/internal/client"
	"github.com/opticshop/backend/internal/listing"
)

type listFlags struct {
	query string
	page  int
	size  int
}

func (lf *listFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&lf.query, "q", "", "Search text")
	fs.IntVar(&lf.page, "page", 1, "Page number")
	fs.IntVar(&lf.size, "size", listing.DefaultPageSize, "Rows per page")
}

// showPage loads a collection and prints one page of it.
func showPage[T any](ctx context.Context, out io.Writer, lf listFlags, fields func(T) []string, load listing.Loader[T], header string, row func(client.Row[T]) string) error {
	l := listing.New(fields, lf.size)
	if err := l.Load(ctx, load); err != nil {
		return err
	}
	l.SetQuery(lf.query)
	l.SetPage(lf.page)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range l.Visible() {
		fmt.Fprintln(tw, row(r))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d/%d, %d match(es)\n", l.Page(), l.PageCount(), len(l.Filtered()))
	return nil
}

// deleteRow runs the confirm-then-delete flow for the row under key.
func deleteRow[T any](ctx context.Context, a *app, yes bool, key string, fields func(T) []string, load listing.Loader[T], label func(T) string, del listing.Deleter) error {
	l := listing.New(fields, 0)
	if err := l.Load(ctx, load); err != nil {
		return err
	}

	notice, err := l.RequestDelete(key)
	if errors.Is(err, listing.ErrNotDeletable) {
		fmt.Fprintln(a.out, notice.Text)
		return nil
	}
	if err != nil {
		return fmt.Errorf("no row with key %q", key)
	}

	var name string
	for _, r := range l.Rows() {
		if r.Key == key {
			name = label(r.Record)
		}
	}
	if !yes && !confirm(a.in, a.out, fmt.Sprintf("Supprimer %q ?", name)) {
		l.CancelDelete()
		fmt.Fprintln(a.out, "Suppression annulée")
		return nil
	}

	notice, err = l.ConfirmDelete(ctx, del)
	if notice != nil {
		fmt.Fprintln(a.out, notice.Text)
	}
	return err
}
