// Package cli — команды администрирования витрины поверх того же хранилища,
// что использует HTTP-сервис.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/storefront/internal/app"
)

// ValidFormats допустимые форматы вывода.
var ValidFormats = []string{"text", "json"}

// RootOptions глобальные флаги всех команд.
type RootOptions struct {
	Verbose bool
	Format  string

	Driver      string
	DSN         string
	Path        string
	Dir         string
	MongoURI    string
	CatalogFile string
	TaxRate     float64
}

// NewRootCommand создаёт корневую команду storectl.
func NewRootCommand() *cobra.Command {
	defaults := app.DefaultConfig()
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storectl",
		Short: "Storefront admin tool",
		Long:  "Inspect and change the storefront catalog, stock, cart and orders directly in storage.",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Driver, "driver", app.StorageDriverSQLite, "storage driver (memory|pebble|sqlite|postgres|mongo)")
	flags.StringVar(&opts.DSN, "dsn", "", "postgres DSN")
	flags.StringVar(&opts.Path, "path", defaults.SQLitePath, "sqlite database path")
	flags.StringVar(&opts.Dir, "dir", defaults.PebbleDir, "pebble data directory")
	flags.StringVar(&opts.MongoURI, "mongo-uri", "", "mongo connection URI")
	flags.StringVar(&opts.CatalogFile, "catalog", "", "catalog file used to seed empty storage")
	flags.Float64Var(&opts.TaxRate, "tax-rate", defaults.TaxRate, "tax rate for cart totals")

	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewStockCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))

	return cmd
}

// config переводит глобальные флаги в конфигурацию сборки витрины.
func (o *RootOptions) config() app.Config {
	cfg := app.DefaultConfig()
	cfg.StorageDriver = o.Driver
	cfg.PostgresDSN = o.DSN
	cfg.SQLitePath = o.Path
	cfg.PebbleDir = o.Dir
	cfg.MongoURI = o.MongoURI
	cfg.CatalogFile = o.CatalogFile
	cfg.TaxRate = o.TaxRate
	return cfg
}

// withStorefront открывает витрину на время выполнения одной команды.
func withStorefront(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error) error {
	cfg := opts.config()
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid storage flags", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sf, err := app.Build(ctx, cfg, app.BuildOptions{Logger: newLogger(opts, cmd.ErrOrStderr())})
	if err != nil {
		return WrapExitError(ExitCommandError, "open storefront", err)
	}
	defer sf.Close()

	return fn(ctx, sf, &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()})
}

// newLogger пишет в stderr, чтобы не портить JSON-вывод команд.
func newLogger(opts *RootOptions, w io.Writer) *log.Entry {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger.SetLevel(log.WarnLevel)
	if opts.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger.WithField("component", "storectl")
}
