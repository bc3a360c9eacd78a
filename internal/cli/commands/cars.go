package commands

import (
	"TrackingCar/internal/cli/api"
	"TrackingCar/internal/config"
	"TrackingCar/internal/model"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
)

// listQuery собирает строку запроса страницы.
func listQuery(page, size int, search string) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		q.Set("page_size", strconv.Itoa(size))
	}
	if search != "" {
		q.Set("search", search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

type carsCmd struct{}

func (carsCmd) Name() string        { return "cars" }
func (carsCmd) Description() string { return "List cars, optionally filtered by plate or type" }
func (carsCmd) Usage() string       { return "cars [-page N] [-size N] [search]" }

func (carsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("cars", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	var p api.Page[model.Car]
	if err := newClient(cfg).Get(ctx, "/api/cars"+listQuery(*page, *size, strings.Join(fs.Args(), " ")), &p); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLATE\tTYPE\tSTATUS\tFILES")
	for _, c := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", c.ID, c.PlateNumber, c.CarType, c.Status, len(c.Attachments))
	}
	_ = tw.Flush()
	fmt.Fprintf(Out, "page %d of %d, %d total\n", p.Page, p.Pages, p.Total)
	return nil
}

type carGetCmd struct{}

func (carGetCmd) Name() string        { return "car" }
func (carGetCmd) Description() string { return "Show car details and attachments" }
func (carGetCmd) Usage() string       { return "car <id>" }

func (carGetCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	var c model.Car
	if err := newClient(cfg).Get(ctx, "/api/cars/"+url.PathEscape(args[0]), &c); err != nil {
		return err
	}
	fmt.Fprintf(Out, "Plate:    %s\nType:     %s\nChassis:  %s\nStatus:   %s\nTracking: %s\n",
		c.PlateNumber, c.CarType, c.ChassisNumber, c.Status, c.TrackingCode)
	if c.Location != nil {
		fmt.Fprintf(Out, "Location: %s\n", c.Location.Name)
	}
	if c.Ownership != nil {
		fmt.Fprintf(Out, "Owner:    %s\n", c.Ownership.Name)
	}
	for _, a := range c.Attachments {
		fmt.Fprintf(Out, "  [%s] %s/api/files/cars/%s\n", a.Category, cfg.ServerURL, url.PathEscape(a.File))
	}
	return nil
}

type carAddCmd struct{}

func (carAddCmd) Name() string        { return "car-add" }
func (carAddCmd) Description() string { return "Register a car with optional documents" }
func (carAddCmd) Usage() string {
	return "car-add [-type T] [-location id] [-ownership id] [-annual f] [-authorization f] [-document f] <plate>"
}

func (carAddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("car-add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	carType := fs.String("type", "", "car type")
	location := fs.String("location", "", "location id")
	ownership := fs.String("ownership", "", "ownership id")
	paths := map[model.AttachmentCategory]*string{}
	for _, cat := range model.AttachmentCategories {
		paths[cat] = fs.String(string(cat), "", string(cat)+" file")
	}
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return ErrUsage
	}

	car := map[string]any{"plate_number": fs.Arg(0), "car_type": *carType}
	if *location != "" {
		car["location_id"] = *location
	}
	if *ownership != "" {
		car["ownership_id"] = *ownership
	}
	payload, err := json.Marshal([]any{car})
	if err != nil {
		return err
	}
	var files []api.FormFile
	for _, cat := range model.AttachmentCategories {
		if p := *paths[cat]; p != "" {
			files = append(files, api.FormFile{Field: fmt.Sprintf("%s[0]", cat), Path: p})
		}
	}

	var created []model.Car
	if err := newClient(cfg).PostMultipart(ctx, "/api/cars", map[string]string{"cars": string(payload)}, files, &created); err != nil {
		return err
	}
	for _, c := range created {
		fmt.Fprintf(Out, "Created car %s (%s) with %d attachment(s)\n", c.ID, c.PlateNumber, len(c.Attachments))
	}
	return nil
}

type carRemoveCmd struct{}

func (carRemoveCmd) Name() string        { return "car-rm" }
func (carRemoveCmd) Description() string { return "Remove a car (-hard purges it with its files)" }
func (carRemoveCmd) Usage() string       { return "car-rm [-hard] <id>" }

func (carRemoveCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("car-rm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	hard := fs.Bool("hard", false, "purge permanently")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return ErrUsage
	}
	path := "/api/cars/" + url.PathEscape(fs.Arg(0))
	if *hard {
		path += "?hard=true"
	}
	if err := newClient(cfg).Delete(ctx, path, nil); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Removed")
	return nil
}

func init() {
	RegisterCmd(carsCmd{})
	RegisterCmd(carGetCmd{})
	RegisterCmd(carAddCmd{})
	RegisterCmd(carRemoveCmd{})
}
