package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/opticshop/backend/internal/client"
	"github.com/opticshop/backend/internal/gallery"
	"github.com/opticshop/backend/internal/listing"
	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/wizard"
)

func (a *app) frames(ctx context.Context, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	if err := a.authenticate(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet("frames "+sub, flag.ContinueOnError)
	fs.SetOutput(a.out)

	switch sub {
	case "list":
		var lf listFlags
		lf.register(fs)
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return showPage(ctx, a.out, lf, listing.FrameFields, a.client.ListFrames,
			"KEY\tNAME\tBRAND\tSHAPE\tPRICE\tSTOCK",
			func(r client.Row[models.Frame]) string {
				key := r.Key
				if r.Malformed {
					key += " (invalide)"
				}
				return fmt.Sprintf("%s\t%s\t%s\t%s\t%.2f\t%d", key, r.Record.Name, r.Record.Brand, r.Record.Shape, r.Record.Price, r.Record.TotalStock())
			})

	case "show":
		variation := fs.Int("variation", 0, "Variation index")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		id, err := frameID(fs.Args())
		if err != nil {
			return err
		}
		f, err := a.client.GetFrame(ctx, id)
		if err != nil {
			return err
		}
		a.printFrame(f, *variation)
		return nil

	case "delete":
		yes := fs.Bool("yes", false, "Skip confirmation")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: frames delete [-yes] <key>")
		}
		return deleteRow(ctx, a, *yes, fs.Arg(0), listing.FrameFields, a.client.ListFrames,
			func(f models.Frame) string { return f.Name }, a.client.DeleteFrame)

	case "create", "edit":
		draftPath := fs.String("f", "", "YAML draft file")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *draftPath == "" {
			return fmt.Errorf("frames %s needs -f draft.yaml", sub)
		}
		draft, err := LoadDraft(*draftPath)
		if err != nil {
			return err
		}

		var form *wizard.Form
		if sub == "create" {
			form = wizard.NewCreate()
		} else {
			id, err := frameID(fs.Args())
			if err != nil {
				return err
			}
			f, err := a.client.GetFrame(ctx, id)
			if err != nil {
				return err
			}
			if form, err = wizard.NewEdit(f); err != nil {
				return err
			}
		}
		if err := draft.Apply(form, imageLoader{baseDir: filepath.Dir(*draftPath), maxDim: a.opts.MaxImageSize}); err != nil {
			return err
		}
		return a.submit(ctx, form)
	}
	return fmt.Errorf("unknown frames subcommand %q", sub)
}

func frameID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one frame id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, wizard.ErrNoRealID
	}
	return id, nil
}

// submit walks the form to the last step and sends it.
func (a *app) submit(ctx context.Context, form *wizard.Form) error {
	for form.Step() != wizard.StepVariations {
		if !form.Next() {
			return a.stepFailure(form, form.Step())
		}
	}
	res, err := form.Submit(ctx, a.client)
	var blocked *wizard.BlockedError
	if errors.As(err, &blocked) {
		return a.stepFailure(form, blocked.Step)
	}
	if err != nil {
		for _, s := range wizard.Steps {
			a.printErrors(form.VisibleErrors(s))
		}
		a.printErrors(form.ServerErrors())
		return err
	}
	fmt.Fprintf(a.out, "%s (id %d)\n", res.Notice, res.Frame.ID)
	return nil
}

func (a *app) stepFailure(form *wizard.Form, step wizard.Step) error {
	a.printErrors(form.VisibleErrors(step))
	return fmt.Errorf("étape %d (%s) incomplète", step, step)
}

func (a *app) printErrors(errs map[string]string) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "  %s: %s\n", k, errs[k])
	}
}

func (a *app) printFrame(f *models.Frame, variation int) {
	v := gallery.New(f)
	v.SelectVariation(variation)

	fmt.Fprintf(a.out, "#%d %s (%s)\n", f.ID, f.Name, f.Brand)
	fmt.Fprintf(a.out, "  %s, %s, %s, %s, %s\n", f.Category, f.Gender, f.Size, f.FrameType, f.Shape)
	var dims []string
	for _, name := range models.DimensionFields {
		if d := f.Dimensions.Get(name); d != nil {
			dims = append(dims, fmt.Sprintf("%s=%g", name, *d))
		}
	}
	if len(dims) > 0 {
		fmt.Fprintf(a.out, "  %s\n", strings.Join(dims, " "))
	}
	for i, vr := range f.Variations {
		marker := " "
		if i == v.VariationIndex() {
			marker = "*"
		}
		fmt.Fprintf(a.out, " %s[%d] %s/%s qty=%d %s\n", marker, i, vr.Color, vr.Material, vr.Quantity, vr.HexColor)
	}
	fmt.Fprintf(a.out, "  prix: %.2f, stock: %v\n", v.Price(), v.InStock())
	for i, img := range v.Images() {
		fmt.Fprintf(a.out, "  image %d: %s\n", i+1, img)
	}
}
