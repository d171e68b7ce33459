package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/seed"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

const usage = `Usage: expensetracker-admin <command> [flags]

Commands:
  seed                 replace the owner's transactions with the October 2024 samples
  import <file.json>   copy a legacy JSON export into the configured backend

Flags:
`

func main() {
	owner := flag.String("owner", "", "owner to act for (default DEFAULT_OWNER)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentAdmin)
	if *owner == "" {
		*owner = cfg.DefaultOwner
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store := cli.InitBackend(ctx, logger, cfg)
	defer cli.CloseBackend(logger, store)

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "seed":
		err = runSeed(ctx, logger, store.Store, *owner, cfg)
	case "import":
		if flag.NArg() < 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = runImport(ctx, logger, store.Store, *owner, cfg, flag.Arg(1))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Command failed", "command", flag.Arg(0), log.FieldError, err)
		cli.CloseBackend(logger, store)
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, logger *log.Logger, store storage.Store, owner string, cfg *config.Config) error {
	n, err := seed.Run(ctx, store, owner, cfg.Location(), time.Now())
	if err != nil {
		return err
	}
	logger.Info("Seed completed", log.FieldOperation, log.OpSeed, log.FieldOwner, owner, "count", n)
	return nil
}

// runImport copies every legacy record, skipping IDs the store already has
// so the command can be re-run.
func runImport(ctx context.Context, logger *log.Logger, store storage.Store, owner string, cfg *config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open legacy export: %w", err)
	}
	defer f.Close()

	txs, rejected, err := memory.DecodeLegacy(f, owner, cfg.Location(), time.Now())
	if err != nil {
		return err
	}

	imported, skipped := 0, 0
	for _, t := range txs {
		_, err := store.Get(ctx, t.ID)
		switch {
		case err == nil:
			skipped++
			continue
		case !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("check transaction %s: %w", t.ID, err)
		}

		if err := store.Create(ctx, t); err != nil {
			return fmt.Errorf("import transaction %s: %w", t.ID, err)
		}
		imported++
	}

	logger.Info("Import completed",
		log.FieldOperation, log.OpImport,
		"file", path,
		"imported", imported,
		"skipped", skipped,
		"rejected", rejected)
	return nil
}
