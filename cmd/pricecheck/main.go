// pricecheck looks up Florida grocery prices from the command line.
//
// Usage:
//
//	pricecheck check --product "coca cola" --city miami
//	pricecheck vendor --item chips --lat 27.95 --lon -82.46
//	pricecheck multiplier --city "key west"
//	pricecheck cities
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/shelfscout/backend/config"
	"github.com/shelfscout/backend/internal/app"
	"github.com/shelfscout/backend/internal/domain"
	"github.com/shelfscout/backend/internal/infrastructure/region"
	"github.com/shelfscout/backend/internal/usecase"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	if err := run(os.Args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cliApp := &cli.App{
		Name:    "pricecheck",
		Usage:   "Real-time grocery prices and vendor pricing for Florida cities",
		Version: version,
		Writer:  out,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"SHELFSCOUT_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Fetch retailer pages over plain HTTP only",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},

		Commands: []*cli.Command{
			checkCommand(),
			vendorCommand(),
			multiplierCommand(),
			citiesCommand(),
		},
	}

	return cliApp.Run(args)
}

func locationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "city",
			Aliases: []string{"c"},
			Usage:   "Florida city name",
		},
		&cli.Float64Flag{
			Name:  "lat",
			Usage: "GPS latitude (use with --lon instead of --city)",
		},
		&cli.Float64Flag{
			Name:  "lon",
			Usage: "GPS longitude (use with --lat instead of --city)",
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check the market price of a product (consumer mode)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "product",
				Aliases:  []string{"p"},
				Usage:    "Product name, e.g. \"coca cola\"",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "explain",
				Usage: "Show search terms and per-source results",
			},
		}, locationFlags()...),
		Action: func(c *cli.Context) error {
			a, err := loadApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			product := c.String("product")
			coords := coordinatesFlag(c)
			out := c.App.Writer

			if !c.Bool("json") {
				fmt.Fprintf(out, "--- FETCHING DATA FOR '%s' ---\n", strings.ToUpper(product))
			}

			result, err := a.Pricing.CheckPrice(c.Context, &domain.PriceCheckRequest{
				Product:     product,
				City:        c.String("city"),
				Coordinates: coords,
			})
			if err != nil {
				if errors.Is(err, domain.ErrNoPriceData) {
					fmt.Fprintln(out, "Could not find reliable data. Try a broader term (e.g. 'Soda' instead of 'Coke').")
				}
				return err
			}

			if c.Bool("explain") {
				if err := explain(c, a, product, result.City); err != nil {
					return err
				}
			}

			if c.Bool("json") {
				return printJSON(out, result)
			}

			fmt.Fprintf(out, "Result found for: %s\n", result.Product)
			fmt.Fprintf(out, "Market Average:   $%.2f\n", result.Price)
			fmt.Fprintf(out, "Location Info:    %s is a %s cost area (multiplier %.3f)\n",
				result.City, result.LocationType, result.Multiplier)
			return nil
		},
	}
}

func vendorCommand() *cli.Command {
	return &cli.Command{
		Name:  "vendor",
		Usage: "Recommend a selling price range for an item (vendor mode)",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "item",
				Aliases:  []string{"i"},
				Usage:    "Item you are selling",
				Required: true,
			},
		}, locationFlags()...),
		Action: func(c *cli.Context) error {
			a, err := loadApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			out := c.App.Writer
			rec, err := a.Pricing.VendorPricing(c.Context, &domain.VendorRequest{
				Item:        c.String("item"),
				City:        c.String("city"),
				Coordinates: coordinatesFlag(c),
			})
			if err != nil {
				if errors.Is(err, domain.ErrNoPriceData) {
					fmt.Fprintf(out, "Data unavailable for '%s'.\n", c.String("item"))
				}
				return err
			}

			if c.Bool("json") {
				return printJSON(out, rec)
			}

			fmt.Fprintln(out, "--- MARKET ANALYSIS ---")
			fmt.Fprintf(out, "Competitor Avg:    $%.2f\n", rec.CompetitorAvg)
			fmt.Fprintf(out, "Recommended Range: $%.2f - $%.2f\n", rec.RecommendedMin, rec.RecommendedMax)
			fmt.Fprintf(out, "Location Info:     %s is a %s cost area\n", rec.City, rec.LocationType)
			return nil
		},
	}
}

func multiplierCommand() *cli.Command {
	return &cli.Command{
		Name:  "multiplier",
		Usage: "Show the regional price multiplier of a city or point",
		Flags: locationFlags(),
		Action: func(c *cli.Context) error {
			a, err := loadApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			var m float64
			var place string
			if coords := coordinatesFlag(c); coords != nil {
				if err := usecase.ValidateCoordinates(*coords); err != nil {
					return err
				}
				m = a.Regions.MultiplierForCoordinates(coords.Latitude, coords.Longitude)
				place = fmt.Sprintf("%.4f, %.4f", coords.Latitude, coords.Longitude)
			} else {
				place = strings.TrimSpace(c.String("city"))
				if place == "" {
					return fmt.Errorf("%w: --city or --lat/--lon", domain.ErrMissingParameter)
				}
				m = a.Regions.MultiplierForCity(c.Context, place)
			}

			out := c.App.Writer
			if c.Bool("json") {
				return printJSON(out, map[string]interface{}{
					"location":      place,
					"multiplier":    usecase.RoundTo(m, 3),
					"location_type": region.ClassifyLocation(m),
				})
			}

			fmt.Fprintf(out, "%s: %.3f (%s)\n", place, m, region.ClassifyLocation(m))
			return nil
		},
	}
}

func citiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "cities",
		Usage: "List the reference hubs and their cost index",
		Action: func(c *cli.Context) error {
			a, err := loadApp(c)
			if err != nil {
				return err
			}
			defer a.Close()

			out := c.App.Writer
			hubs := a.Regions.Hubs()
			if c.Bool("json") {
				return printJSON(out, hubs)
			}

			for _, h := range hubs {
				fmt.Fprintf(out, "%-14s %.2f  %s\n", h.Name, h.Index, region.ClassifyLocation(h.Index))
			}
			fmt.Fprintln(out, "Any Florida city can be used; unknown cities are interpolated from these hubs.")
			return nil
		},
	}
}

// explain reruns discovery for its diagnostics. Retail pages change between
// calls, so the numbers can differ slightly from the headline price.
func explain(c *cli.Context, a *app.App, product, city string) error {
	d, err := a.Discovery.Discover(c.Context, domain.PriceQuery{ItemName: product, City: city})
	if err != nil {
		return err
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Search terms: %s\n", strings.Join(d.Terms, " | "))
	for _, at := range d.Attempts {
		status := fmt.Sprintf("%d prices", len(at.Prices))
		if at.Err != nil {
			status = "failed: " + at.Err.Error()
		}
		fmt.Fprintf(out, "  [%s] %-16s %-8s %s\n", at.Term, at.Source, at.Duration.Round(time.Millisecond), status)
	}
	fmt.Fprintf(out, "Category: %s, kept %d of %d candidates\n", d.Category, len(d.Filtered), len(d.RawPool))
	return nil
}

func loadApp(c *cli.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.Bool("no-browser") {
		cfg.Browser.Enabled = false
	}

	app.ConfigureLogging(c.String("log-level"), cfg.Server.Environment)
	return app.New(cfg)
}

// coordinatesFlag returns nil unless both --lat and --lon were given
func coordinatesFlag(c *cli.Context) *domain.Coordinates {
	if !c.IsSet("lat") || !c.IsSet("lon") {
		return nil
	}
	return &domain.Coordinates{Latitude: c.Float64("lat"), Longitude: c.Float64("lon")}
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
