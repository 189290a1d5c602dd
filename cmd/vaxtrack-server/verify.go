package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vaxtrack/vaxtrack/internal/config"
)

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [id...]",
		Short: "Verify catalog records against their sources",
		Long: "Verify looks up each record's sources using VERIFY_MODE and stores the\n" +
			"result in VERIFY_CACHE. With --all every catalog record is checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			asJSON, _ := cmd.Flags().GetBool("json")
			if !all && len(args) == 0 {
				return fmt.Errorf("pass one or more vaccine ids, or --all")
			}

			return withVerification(cmd, func(ctx context.Context, v *verificationDeps, ids []string) error {
				if !all {
					ids = args
				}
				results := v.cache.VerifyAll(ctx, ids)
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(map[string]interface{}{"results": results})
				}
				fmt.Fprintf(out, "%-20s %-9s %-10s %s\n", "ID", "VERIFIED", "CONFIDENCE", "NOTES")
				for _, r := range results {
					fmt.Fprintf(out, "%-20s %-9t %-10.2f %s\n", r.VaccineID, r.Verified, r.Confidence, strings.Join(r.Disagreement, "; "))
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("all", false, "Verify every catalog record")
	cmd.Flags().Bool("json", false, "Print results as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "report",
		Short: "Summarise cached verification state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withVerification(cmd, func(ctx context.Context, v *verificationDeps, _ []string) error {
				catalog, err := catalogFromFlags(cmd)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(v.cache.Report(ctx, catalog.All()))
			})
		},
	})
	cmd.PersistentFlags().String("file", "", "Catalog YAML file")

	return cmd
}

// withVerification builds the cache from config and hands over every
// catalog id for --all style callers.
func withVerification(cmd *cobra.Command, fn func(context.Context, *verificationDeps, []string) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	catalog, err := catalogFromFlags(cmd)
	if err != nil {
		return err
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	deps, err := newVerification(ctx, cfg, catalog, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	ids := make([]string, 0, catalog.Len())
	for _, r := range catalog.All() {
		ids = append(ids, r.ID)
	}
	return fn(ctx, deps, ids)
}
