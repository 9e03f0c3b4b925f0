// Command withdrawal-config seeds and inspects per-module withdrawal
// policies.
//
//	withdrawal-config seed -f policies.yaml [--dry-run]
//	withdrawal-config list
//	withdrawal-config deactivate --module predict
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"fund-planning-api/config"
	"fund-planning-api/services"
	"fund-planning-api/workflow"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		return nil
	}
	command, rest := args[0], args[1:]

	var (
		filePath string
		module   string
		dryRun   bool
		actorID  int
	)
	flagSet := pflag.NewFlagSet("withdrawal-config "+command, pflag.ContinueOnError)
	flagSet.StringVarP(&filePath, "file", "f", "", "YAML policy file (seed)")
	flagSet.StringVar(&module, "module", "", "module type (deactivate)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	flagSet.IntVar(&actorID, "updated-by", 0, "user id stamped as updated_by")
	if err := flagSet.Parse(rest); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	var configs []workflow.WithdrawalConfig
	switch command {
	case "seed":
		if filePath == "" {
			return fmt.Errorf("seed needs -f <policies.yaml>")
		}
		f, err := os.Open(filePath)
		if err != nil {
			return err
		}
		configs, err = parsePolicyFile(f)
		f.Close()
		if err != nil {
			return err
		}
		if dryRun {
			fmt.Printf("%d policies valid\n", len(configs))
			return nil
		}
	case "list":
	case "deactivate":
		if strings.TrimSpace(module) == "" {
			return fmt.Errorf("deactivate needs --module")
		}
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}
	settings, err := config.Load()
	if err != nil {
		return err
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	db, err := config.OpenDB(settings, logger.Level(zerolog.WarnLevel))
	if err != nil {
		return err
	}
	policies := services.NewPolicyService(db, settings.PolicyCacheTTL, settings.PolicyCacheRecheck, logger)
	ctx := context.Background()

	switch command {
	case "seed":
		for _, cfg := range configs {
			if _, err := policies.Upsert(ctx, cfg, actorID); err != nil {
				return err
			}
			logger.Info().Str("module_type", cfg.ModuleType).Int("max_attempts", cfg.MaxAttempts).Msg("policy saved")
		}
		return nil
	case "deactivate":
		return policies.Deactivate(ctx, module, actorID)
	}

	rows, err := policies.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tACTIVE\tSTATUSES\tHOURS\tATTEMPTS\tAPPROVAL\tRESUBMIT")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%v\t%s\t%d\t%d\t%v\t%v\n",
			row.ModuleType, row.IsActive, strings.Join(row.AllowedStatuses, ","),
			row.TimeLimitHours, row.MaxAttempts, row.RequireApproval, row.AllowResubmit)
	}
	return w.Flush()
}

func printUsage() {
	fmt.Fprint(os.Stderr, `withdrawal-config manages per-module withdrawal policies.

Usage:
  withdrawal-config seed -f policies.yaml [--dry-run] [--updated-by ID]
  withdrawal-config list
  withdrawal-config deactivate --module MODULE [--updated-by ID]
`)
}
