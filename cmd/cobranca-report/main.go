// Command cobranca-report prints billing views of one company: the month
// dashboard, a client detail, the agenda of a month or a client search. It
// can also mark an installment as paid.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	_ "time/tzdata"

	"cobranca/internal/cache"
	"cobranca/internal/cli"
	"cobranca/internal/core"
	"cobranca/internal/log"
	"cobranca/internal/services"
)

const usage = `usage: cobranca-report [-env file] -company id <command> [flags]

commands:
  dashboard [-year y] [-month m] [-status all|paid|pending|overdue]
  client <client-id>
  agenda [-year y] [-month m]
  search <client name>
  pay <installment-id>
`

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cobranca-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	envFile := fs.String("env", ".env", "dotenv file to load")
	companyID := fs.String("company", "", "company id")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	if err := cli.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := cli.SetupLogger(cfg, log.ComponentReport)

	ctx, cancel := cli.SignalContext(context.Background())
	defer cancel()

	st, closeStore, err := cli.OpenStore(logger, cfg)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, log.FieldOperation, log.OpStartup)
		return 1
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Failed to close store", log.FieldError, err)
		}
	}()

	summaries := services.NewSummaryCache(cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	if cfg.SummaryCacheTTL > 0 {
		manager := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
		summaries.Register(manager)
		manager.StartCleanup(ctx, cfg.SummaryCacheTTL)
		defer manager.Stop()
	}

	billing := services.NewBillingService(st,
		services.WithLogger(logger),
		services.WithLocation(cfg.Location()),
		services.WithSummaryCache(summaries),
		services.WithFetchConcurrency(cfg.FetchConcurrency),
	)
	r := &report{
		billing: billing,
		out:     stdout,
		money:   core.NewCurrencyFormatter(cfg.LanguageTag(), cfg.CurrencySymbol),
	}

	err = dispatch(ctx, r, *companyID, fs.Arg(0), fs.Args()[1:], stderr)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		fmt.Fprint(stderr, usage)
		return 2
	default:
		logger.Error("Command failed", log.FieldError, err, "command", fs.Arg(0))
		fmt.Fprintln(stderr, "error:", err)
		return cli.ExitCode(err)
	}
}

func dispatch(ctx context.Context, r *report, companyID, cmd string, args []string, stderr io.Writer) error {
	needCompany := func() error {
		if companyID == "" {
			return fmt.Errorf("%w: -company is required for %s", errUsage, cmd)
		}
		return nil
	}

	switch cmd {
	case "dashboard":
		if err := needCompany(); err != nil {
			return err
		}
		fs, year, month := periodFlags(cmd, r.billing.Now(), stderr)
		status := fs.String("status", string(services.FilterAll), "status filter")
		if err := fs.Parse(args); err != nil {
			return err
		}
		f, err := services.ParseStatusFilter(*status)
		if err != nil {
			return err
		}
		return r.dashboard(ctx, companyID, *year, *month, f)

	case "agenda":
		if err := needCompany(); err != nil {
			return err
		}
		fs, year, month := periodFlags(cmd, r.billing.Now(), stderr)
		if err := fs.Parse(args); err != nil {
			return err
		}
		return r.agenda(ctx, companyID, *year, *month)

	case "search":
		if err := needCompany(); err != nil {
			return err
		}
		if len(args) == 0 {
			return fmt.Errorf("%w: search needs a name", errUsage)
		}
		return r.search(ctx, companyID, args[0])

	case "client":
		if len(args) != 1 {
			return fmt.Errorf("%w: client needs an id", errUsage)
		}
		return r.client(ctx, args[0])

	case "pay":
		if len(args) != 1 {
			return fmt.Errorf("%w: pay needs an installment id", errUsage)
		}
		return r.pay(ctx, args[0])

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func periodFlags(name string, now time.Time, stderr io.Writer) (*flag.FlagSet, *int, *int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	year := fs.Int("year", now.Year(), "year")
	month := fs.Int("month", int(now.Month()), "month (1-12)")
	return fs, year, month
}
