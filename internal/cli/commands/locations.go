package commands

import (
	"TrackingCar/internal/cli/api"
	"TrackingCar/internal/config"
	"TrackingCar/internal/model"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

type locationsCmd struct{}

func (locationsCmd) Name() string        { return "locations" }
func (locationsCmd) Description() string { return "List storage locations" }
func (locationsCmd) Usage() string       { return "locations [-page N] [search]" }

func (locationsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("locations", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	var p api.Page[model.Location]
	if err := newClient(cfg).Get(ctx, "/api/locations"+listQuery(*page, 0, strings.Join(fs.Args(), " ")), &p); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDETAILS")
	for _, l := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Name, l.Details)
	}
	_ = tw.Flush()
	fmt.Fprintf(Out, "page %d of %d, %d total\n", p.Page, p.Pages, p.Total)
	return nil
}

type locationAddCmd struct{}

func (locationAddCmd) Name() string        { return "location-add" }
func (locationAddCmd) Description() string { return "Create a storage location" }
func (locationAddCmd) Usage() string       { return "location-add <name> [details]" }

func (locationAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}
	in := map[string]string{"name": args[0], "details": strings.Join(args[1:], " ")}
	var loc model.Location
	if err := newClient(cfg).PostJSON(ctx, "/api/locations", in, &loc); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Created location %s (%s)\n", loc.ID, loc.Name)
	return nil
}

func init() {
	RegisterCmd(locationsCmd{})
	RegisterCmd(locationAddCmd{})
}
