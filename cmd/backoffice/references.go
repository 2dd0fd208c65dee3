package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/opticshop/backend/internal/client"
	"github.com/opticshop/backend/internal/listing"
	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/refdata"
)

// parseKind accepts either the kind name or its URL segment.
func parseKind(s string) (models.ReferenceKind, error) {
	for _, k := range models.ReferenceKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return models.KindFromPath(s)
}

func (a *app) references(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	if err := a.authenticate(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet("references "+sub, flag.ContinueOnError)
	fs.SetOutput(a.out)

	switch sub {
	case "list":
		var lf listFlags
		lf.register(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: references list [-q text] <kind>")
		}
		kind, err := parseKind(fs.Arg(0))
		if err != nil {
			return err
		}
		load := func(ctx context.Context) ([]client.Row[models.ReferenceItem], error) {
			return a.client.ListReferences(ctx, kind)
		}
		return showPage(ctx, a.out, lf, listing.ReferenceFields, load,
			"KEY\tNAME\tSLUG\tHEX",
			func(r client.Row[models.ReferenceItem]) string {
				return fmt.Sprintf("%s\t%s\t%s\t%s", r.Key, r.Record.Name, r.Record.Slug, r.Record.Hex)
			})

	case "add":
		var req models.CreateReferenceRequest
		fs.StringVar(&req.Name, "name", "", "Name")
		fs.StringVar(&req.Hex, "hex", "", "Hex code, colors only")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: references add -name n [-hex #RRGGBB] <kind>")
		}
		kind, err := parseKind(fs.Arg(0))
		if err != nil {
			return err
		}
		if errs := req.Validate(kind); len(errs) > 0 {
			a.printErrors(errs)
			return fmt.Errorf("%s is incomplete", kind)
		}
		item, err := a.client.CreateReference(ctx, kind, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s ajouté (id %d, slug %s)\n", item.Name, item.ID, item.Slug)
		return nil

	case "delete":
		yes := fs.Bool("yes", false, "Skip confirmation")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("usage: references delete [-yes] <kind> <key>")
		}
		kind, err := parseKind(fs.Arg(0))
		if err != nil {
			return err
		}
		load := func(ctx context.Context) ([]client.Row[models.ReferenceItem], error) {
			return a.client.ListReferences(ctx, kind)
		}
		del := func(ctx context.Context, id int64) error {
			return a.client.DeleteReference(ctx, kind, id)
		}
		return deleteRow(ctx, a, *yes, fs.Arg(1), listing.ReferenceFields, load,
			func(r models.ReferenceItem) string { return r.Name }, del)
	}
	return fmt.Errorf("unknown references subcommand %q", sub)
}

func (a *app) refdata(ctx context.Context) error {
	if err := a.authenticate(ctx); err != nil {
		return err
	}
	data := refdata.Load(ctx, a.client)
	for _, kind := range models.ReferenceKinds {
		items := data.Items(kind)
		if err, failed := data.Failures[kind]; failed {
			fmt.Fprintf(a.out, "%-9s indisponible: %s\n", kind, client.UserMessage(err))
			continue
		}
		fmt.Fprintf(a.out, "%-9s %d\n", kind, len(items))
	}
	return nil
}
