package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaxtrack/vaxtrack/internal/config"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccine"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the vaccine catalog",
	}
	cmd.PersistentFlags().String("file", "", "Catalog YAML file (defaults to CATALOG_FILE, then the built-in seed)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every vaccine",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := catalogFromFlags(cmd)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), catalog.All())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "search <query>",
		Short: "Search names, synonyms and diseases",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := catalogFromFlags(cmd)
			if err != nil {
				return err
			}
			found := catalog.Search(strings.Join(args, " "))
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching vaccines.")
				return nil
			}
			printRecords(cmd.OutOrStdout(), found)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one vaccine record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := catalogFromFlags(cmd)
			if err != nil {
				return err
			}
			rec, ok := catalog.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown vaccine %q", args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check a catalog file without starting the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cmd.Flags().Set("file", args[0])
			}
			catalog, err := catalogFromFlags(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog OK: %d vaccines.\n", catalog.Len())
			return nil
		},
	})

	return cmd
}

func catalogFromFlags(cmd *cobra.Command) (*vaccine.Catalog, error) {
	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		file = cfg.CatalogFile
	}
	if file != "" {
		catalog, err := vaccine.LoadFile(file)
		if err != nil {
			return nil, fmt.Errorf("load catalog %s: %w", file, err)
		}
		return catalog, nil
	}
	return vaccine.LoadDefault()
}

func printRecords(out io.Writer, records []vaccine.Record) {
	fmt.Fprintf(out, "%-20s %-32s %-16s %-16s %s\n", "ID", "NAME", "TYPE", "STATUS", "DOSES")
	for _, r := range records {
		fmt.Fprintf(out, "%-20s %-32s %-16s %-16s %d\n", r.ID, r.Name, r.VaccineType, r.MandatoryStatus, len(r.Schedule))
	}
}
