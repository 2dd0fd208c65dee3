package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/opticshop/backend/internal/client"
	"github.com/opticshop/backend/internal/listing"
	"github.com/opticshop/backend/internal/models"
)

func (a *app) lenses(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	if err := a.authenticate(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet("lenses "+sub, flag.ContinueOnError)
	fs.SetOutput(a.out)

	switch sub {
	case "list":
		var lf listFlags
		lf.register(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return showPage(ctx, a.out, lf, listing.LensFields, a.client.ListLenses,
			"KEY\tNAME\tTYPE\tINDEX\tTREATMENT\tPRICE",
			func(r client.Row[models.Lens]) string {
				index := "-"
				if r.Record.RefractiveIndex != nil {
					index = strconv.FormatFloat(*r.Record.RefractiveIndex, 'f', -1, 64)
				}
				return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%.2f", r.Key, r.Record.Name, r.Record.LensType, index, r.Record.Treatment, r.Record.Price)
			})

	case "add":
		var (
			req          models.CreateLensRequest
			lensType     string
			index, price string
		)
		fs.StringVar(&req.Name, "name", "", "Lens name")
		fs.StringVar(&lensType, "type", "", "single-vision, progressive or bifocal")
		fs.StringVar(&index, "index", "", "Refractive index")
		fs.StringVar(&req.Treatment, "treatment", "", "Treatment")
		fs.StringVar(&price, "price", "", "Price")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		req.LensType = models.LensType(lensType)
		if req.RefractiveIndex, err = optionalFloat("index", index); err != nil {
			return err
		}
		if req.Price, err = optionalFloat("price", price); err != nil {
			return err
		}
		if errs := req.Validate(); len(errs) > 0 {
			a.printErrors(errs)
			return fmt.Errorf("lens is incomplete")
		}
		lens, err := a.client.CreateLens(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Verre ajouté (id %d)\n", lens.ID)
		return nil

	case "delete":
		yes := fs.Bool("yes", false, "Skip confirmation")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: lenses delete [-yes] <key>")
		}
		return deleteRow(ctx, a, *yes, fs.Arg(0), listing.LensFields, a.client.ListLenses,
			func(l models.Lens) string { return l.Name }, a.client.DeleteLens)
	}
	return fmt.Errorf("unknown lenses subcommand %q", sub)
}

func optionalFloat(name, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid -%s %q", name, raw)
	}
	return &v, nil
}
