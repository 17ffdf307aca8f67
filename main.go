package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"zoopla-scraper/config"
	"zoopla-scraper/models"
	"zoopla-scraper/scraper"
	"zoopla-scraper/scraper/zoopla"
	"zoopla-scraper/services"
	"zoopla-scraper/storage"
	"zoopla-scraper/utils"
)

type flags struct {
	configPath      string
	pages           int
	workers         int
	mode            string
	fetch           string
	output          string
	seed            string
	loadExisting    bool
	includeLastPage bool
	csv             string
	postgres        bool
	logLevel        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "zoopla-scraper",
		Short:         "Crawl Zoopla search results and record every property's price history",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runID := uuid.NewString()
			logger := utils.NewLoggerTo(os.Stderr, cfg.LogLevel).With("run", runID[:8])
			if err := run(ctx, cfg, logger, runID); err != nil {
				logger.Error("%v", err)
				return err
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	fl.IntVar(&f.pages, "pages", 0, "maximum number of search result pages to visit")
	fl.IntVar(&f.workers, "workers", 0, "concurrent property fetches")
	fl.StringVar(&f.mode, "mode", "", "crawl mode: sequential or concurrent")
	fl.StringVar(&f.fetch, "fetch", "", "fetch backend: http or browser")
	fl.StringVarP(&f.output, "output", "o", "", "spreadsheet base name (\".xlsx\" is appended)")
	fl.StringVar(&f.seed, "seed", "", "spreadsheet to hydrate the dataset from")
	fl.BoolVar(&f.loadExisting, "load-existing", true, "hydrate the dataset from the previous output")
	fl.BoolVar(&f.includeLastPage, "include-last-page", false, "also visit the highest numbered result page")
	fl.StringVar(&f.csv, "csv", "", "also write the dataset to this CSV file")
	fl.BoolVar(&f.postgres, "postgres", false, "also mirror the dataset into PostgreSQL")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")

	return cmd
}

// apply copies the flags set on the command line over cfg.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("pages") {
		cfg.MaxPages = f.pages
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("fetch") {
		cfg.FetchMode = f.fetch
	}
	if changed("output") {
		cfg.OutputBase = f.output
	}
	if changed("seed") {
		cfg.SeedFile = f.seed
	}
	if changed("load-existing") {
		cfg.LoadExisting = f.loadExisting
	}
	if changed("include-last-page") {
		cfg.IncludeLastPage = f.includeLastPage
	}
	if changed("csv") {
		cfg.CSVOutputPath = f.csv
	}
	if changed("postgres") {
		cfg.PostgresEnabled = f.postgres
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger, runID string) error {
	logger.Info("=== Zoopla Scraping System starting ===")
	logger.Info("Config: pages %d | mode %s | workers %d | fetch %s | rate %dms",
		cfg.MaxPages, cfg.Mode, cfg.Workers, cfg.FetchMode, cfg.RateLimitMs)

	ds := storage.NewDataset()
	if seed := cfg.SeedPath(); seed != "" {
		loaded, err := storage.LoadDataset(seed)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		ds = loaded
		logger.Info("Loaded %d existing rows from %s", ds.Len(), seed)
	}

	var fetcher scraper.Fetcher
	switch cfg.FetchMode {
	case config.FetchBrowser:
		bf, err := scraper.NewBrowserFetcher(cfg.ChromeBin, cfg.UserAgent, cfg.RequestTimeout)
		if err != nil {
			return fmt.Errorf("start browser: %w", err)
		}
		defer bf.Close()
		fetcher = bf
	default:
		fetcher = scraper.NewHTTPFetcher(cfg.UserAgent, cfg.RequestTimeout)
	}

	crawler := zoopla.New(cfg, fetcher, logger)
	sum, crawlErr := crawler.Run(ctx, ds)
	if crawlErr != nil {
		return crawlErr
	}
	logger.Info("Pages: %d found, %d visited, %d failed | rows added: %d | total rows: %d",
		sum.PagesFound, sum.PagesVisited, sum.PagesFailed, sum.RowsAdded, ds.Len())

	if err := ds.Persist(cfg.OutputPath()); err != nil {
		return fmt.Errorf("persist dataset: %w", err)
	}
	logger.Info("Dataset saved to %s", cfg.OutputPath())

	if cfg.CSVOutputPath != "" {
		writeMirror(logger, "CSV", func() (storage.EventWriter, error) {
			return storage.NewCSVWriter(cfg.CSVOutputPath)
		}, ds)
	}
	rows := ds.Rows()
	if cfg.PostgresEnabled {
		rows = mirrorPostgres(logger, cfg.DSN(), runID, rows)
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(rows)
	insightSvc.Print(os.Stdout, report)

	fmt.Printf("  Done. Dataset: %s | %d rows\n\n", cfg.OutputPath(), ds.Len())
	return nil
}

// writeMirror copies the dataset into a secondary sink. Failures are only
// logged since the spreadsheet has already been written.
func writeMirror(logger *utils.Logger, name string, open func() (storage.EventWriter, error), ds *storage.Dataset) {
	w, err := open()
	if err != nil {
		logger.Error("Failed to open %s mirror: %v", name, err)
		return
	}
	defer w.Close()

	if err := w.Write(ds.Rows()); err != nil {
		logger.Error("%s write failed: %v", name, err)
		return
	}
	logger.Info("Dataset mirrored to %s", name)
}

// mirrorPostgres writes rows to PostgreSQL and returns the full table read
// back, which also holds rows from earlier runs. On any failure rows is
// returned unchanged.
func mirrorPostgres(logger *utils.Logger, dsn, runID string, rows []*models.PriceEvent) []*models.PriceEvent {
	pw, err := storage.NewPostgresWriter(dsn, runID)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		return rows
	}
	defer pw.Close()

	if err := pw.Write(rows); err != nil {
		logger.Error("PostgreSQL write failed: %v", err)
		return rows
	}
	logger.Info("Dataset mirrored to PostgreSQL (table: price_events)")

	dbRows, err := pw.FetchAll()
	if err != nil {
		logger.Error("Failed to fetch price events from DB for insights: %v", err)
		return rows
	}
	return dbRows
}
