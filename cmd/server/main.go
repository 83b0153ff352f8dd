package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"porkorder/internal/catalog"
	"porkorder/internal/config"
	"porkorder/internal/database"
	"porkorder/internal/legacy"
	"porkorder/internal/logging"
	"porkorder/internal/metrics"
	"porkorder/internal/models"
	"porkorder/internal/orders"
	"porkorder/internal/pricing"
	"porkorder/internal/quantity"
	"porkorder/internal/render"
	"porkorder/internal/server"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	app := &cli.App{
		Name:  "porkorder",
		Usage: "order sheets, product catalog and quantity pricing for a pork wholesaler",
		Commands: []*cli.Command{
			serveCommand(),
			seedCommand(),
			quoteCommand(),
			showCommand(),
			importLegacyCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg, database.Init(cfg), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(c *cli.Context) error {
			cfg, db, err := setup()
			if err != nil {
				return err
			}

			if cfg.SeedDefaults {
				n, err := catalog.NewStore(db).SeedDefaults(c.Context)
				if err != nil {
					return err
				}
				if n > 0 {
					log.Info().Int("count", n).Msg("default products seeded")
				}
			}

			app := server.New(cfg, db, metrics.NewRegistry())

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.HTTPPort).Msg("listening")
				errCh <- app.Listen(":" + cfg.HTTPPort)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			return app.ShutdownWithTimeout(10 * time.Second)
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert the default products into an empty catalog",
		Action: func(c *cli.Context) error {
			_, db, err := setup()
			if err != nil {
				return err
			}
			n, err := catalog.NewStore(db).SeedDefaults(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("%d products added\n", n)
			return nil
		},
	}
}

func quoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "quote",
		Usage:     "Show how a quantity text is read, and its price when a product is given",
		ArgsUsage: "<quantity text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "unit",
				Value: models.UnitCatty,
				Usage: "Product unit used when no product is given",
			},
			&cli.UintFlag{
				Name:    "product-id",
				Aliases: []string{"p"},
				Usage:   "Price against this catalog product",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("quote takes exactly one quantity text")
			}
			text := c.Args().First()

			if !c.IsSet("product-id") {
				res := quantity.Explain(text, c.String("unit"))
				fmt.Printf("%s\t%s\n", res.Quantity, res.Rule)
				return nil
			}

			_, db, err := setup()
			if err != nil {
				return err
			}
			q := pricing.NewPricer(catalog.NewStore(db), nil).Quote(c.Context, c.Uint("product-id"), text)
			if !q.Found {
				fmt.Fprintf(os.Stderr, "product %d not found, priced at zero\n", c.Uint("product-id"))
			}
			fmt.Printf("%s %s\t%s\t× %s = %s\n", q.Normalized, q.Line.Unit, q.Rule, q.Line.UnitPrice, q.Line.Amount.StringFixed(2))
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print an order sheet as a table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "Sheet date, YYYY-MM-DD (default today)"},
			&cli.StringFlag{Name: "vendor", Usage: "Vendor name"},
			&cli.StringFlag{Name: "file", Usage: "Sheet name, e.g. newfile_2025-03-01-09-00-00.csv"},
		},
		Action: func(c *cli.Context) error {
			cfg, db, err := setup()
			if err != nil {
				return err
			}
			svc := orders.NewService(db, pricing.NewPricer(catalog.NewStore(db), nil))
			sheet, err := svc.Get(c.Context, orders.Ref{
				Date:   c.String("date"),
				Vendor: c.String("vendor"),
				Name:   c.String("file"),
			})
			if err != nil {
				return err
			}
			return render.WriteText(os.Stdout, render.NewSheet(sheet.Order, sheet.Lines, cfg.CompanyName, time.Now()))
		},
	}
}

func importLegacyCommand() *cli.Command {
	return &cli.Command{
		Name:  "import-legacy",
		Usage: "Import products.db and the CSV order sheets of the old app",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data-dir",
				Value: "data",
				Usage: "Directory holding products.db and orders/",
			},
		},
		Action: func(c *cli.Context) error {
			_, db, err := setup()
			if err != nil {
				return err
			}
			store := catalog.NewStore(db)
			im := legacy.NewImporter(store, orders.NewService(db, pricing.NewPricer(store, nil)))

			res, err := im.Run(c.Context, c.String("data-dir"))
			if err != nil {
				return err
			}
			fmt.Printf("products: %d, sheets: %d, lines: %d, skipped sheets: %d\n",
				res.Products, res.Sheets, res.Lines, res.SkippedSheets)
			return nil
		},
	}
}
