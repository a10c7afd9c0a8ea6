package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ranksum/internal"
	"ranksum/internal/config"
	"ranksum/internal/errors"
)

// app carries what every subcommand needs once configuration is loaded
type app struct {
	cfg    *config.Config
	logger *internal.Logger
}

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "ranksum",
		Short:         "Wilcoxon rank sum (Mann-Whitney U) test",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = internal.NewLogger(cfg.Log.Level)
			return nil
		},
	}

	rootCmd.AddCommand(
		newTestCmd(a),
		newBatchCmd(a),
		newServeCmd(a),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}
