package main

import (
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/manoj99-eng/krisco-backend/internal/pipeline/slowmovers"
	"github.com/manoj99-eng/krisco-backend/internal/repository"
	"github.com/manoj99-eng/krisco-backend/internal/repository/postgres"
	"github.com/manoj99-eng/krisco-backend/internal/service"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newFileFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "file",
		Usage:    usage,
		Required: true,
	}
}

func openDB(c *cli.Context) (*postgres.DB, error) {
	db, err := sqlx.Connect("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return postgres.NewDBFromConn(db), nil
}

func newImportService(db *postgres.DB) *service.ImportService {
	return service.NewImportService(
		repository.NewStockRepository(db),
		repository.NewMovementRepository(db),
		repository.NewItemRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewStaffRepository(db),
	)
}

func importAction(load func(*service.ImportService, *cli.Context, *os.File) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		db, err := openDB(c)
		if err != nil {
			return err
		}
		defer db.Close()

		f, err := os.Open(c.String("file"))
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		return load(newImportService(db), c, f)
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "krisco",
		Usage: "Warehouse data imports and the slow movers classification run",
		Commands: []*cli.Command{
			{
				Name:  "import-stock",
				Usage: "Import a tab-delimited stock report",
				Flags: []cli.Flag{newDBURLFlag(), newFileFlag("Stock report TXT file")},
				Action: importAction(func(svc *service.ImportService, c *cli.Context, f *os.File) error {
					res, err := svc.ImportStock(c.Context, f)
					if err != nil {
						return err
					}
					fmt.Printf("stock import: %d parsed, %d skipped\n", res.Parsed, res.Skipped)
					return nil
				}),
			},
			{
				Name:  "import-movement",
				Usage: "Import a tab-delimited movement report",
				Flags: []cli.Flag{newDBURLFlag(), newFileFlag("Movement report TXT file")},
				Action: importAction(func(svc *service.ImportService, c *cli.Context, f *os.File) error {
					res, err := svc.ImportMovement(c.Context, f)
					if err != nil {
						return err
					}
					fmt.Printf("movement import: %d parsed, %d skipped\n", res.Parsed, res.Skipped)
					return nil
				}),
			},
			{
				Name:  "import-items",
				Usage: "Import the item master CSV",
				Flags: []cli.Flag{newDBURLFlag(), newFileFlag("Item master CSV file")},
				Action: importAction(func(svc *service.ImportService, c *cli.Context, f *os.File) error {
					res, err := svc.ImportItems(c.Context, f)
					if err != nil {
						return err
					}
					fmt.Printf("item import: %d parsed, %d skipped\n", res.Parsed, res.Skipped)
					return nil
				}),
			},
			{
				Name:  "seed-customers",
				Usage: "Load the customer directory CSV",
				Flags: []cli.Flag{newDBURLFlag(), newFileFlag("Customer CSV file")},
				Action: importAction(func(svc *service.ImportService, c *cli.Context, f *os.File) error {
					res, err := svc.SeedCustomers(c.Context, f)
					if err != nil {
						return err
					}
					fmt.Printf("customer seed: %d parsed, %d skipped\n", res.Parsed, res.Skipped)
					return nil
				}),
			},
			{
				Name:  "seed-staff",
				Usage: "Load the staff SMTP configuration CSV",
				Flags: []cli.Flag{newDBURLFlag(), newFileFlag("Staff CSV file")},
				Action: importAction(func(svc *service.ImportService, c *cli.Context, f *os.File) error {
					res, err := svc.SeedStaff(c.Context, f)
					if err != nil {
						return err
					}
					fmt.Printf("staff seed: %d parsed, %d skipped\n", res.Parsed, res.Skipped)
					return nil
				}),
			},
			{
				Name:  "classify",
				Usage: "Run the slow movers classification for a report date",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "report-date",
						Usage: "Report date (YYYY-MM-DD), defaults to today",
					},
				},
				Action: func(c *cli.Context) error {
					db, err := openDB(c)
					if err != nil {
						return err
					}
					defer db.Close()

					reportDate := time.Now().Truncate(24 * time.Hour)
					if raw := c.String("report-date"); raw != "" {
						reportDate, err = time.Parse("2006-01-02", raw)
						if err != nil {
							return fmt.Errorf("invalid report date %q: %w", raw, err)
						}
					}

					svc := service.NewClassificationService(
						repository.NewStockRepository(db),
						repository.NewMovementRepository(db),
						repository.NewItemRepository(db),
						repository.NewSnapshotRepository(db),
						slowmovers.NewClassifier(slowmovers.Config{}),
					)

					result, err := svc.Run(c.Context, reportDate)
					if err != nil {
						return err
					}
					fmt.Printf("classification %s: %d classified, %d excluded, %d failed\n",
						reportDate.Format("2006-01-02"), result.Classified, result.Excluded, result.Failed)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
