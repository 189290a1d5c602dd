package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaxtrack/vaxtrack/internal/domain/schedule"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute reminders for a date of birth",
		Example: `  vaxtrack-server schedule --dob 2023-09-15 --history BCG@2023-09-16 --history OPV
  vaxtrack-server schedule --dob 1990-04-02 --condition pregnancy --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dob, _ := cmd.Flags().GetString("dob")
			history, _ := cmd.Flags().GetStringArray("history")
			conditions, _ := cmd.Flags().GetStringArray("condition")
			series, _ := cmd.Flags().GetBool("series-tracking")
			asJSON, _ := cmd.Flags().GetBool("json")

			catalog, err := catalogFromFlags(cmd)
			if err != nil {
				return err
			}
			var opts []schedule.Option
			if series {
				opts = append(opts, schedule.WithSeriesTracking())
			}
			reminders, err := schedule.NewEngine(catalog, opts...).GenerateFromInput(schedule.ProfileInput{
				DOB:        dob,
				History:    parseHistoryFlags(history),
				Conditions: conditions,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if reminders == nil {
					reminders = []schedule.Reminder{}
				}
				return enc.Encode(map[string]interface{}{"reminders": reminders})
			}
			printReminders(cmd.OutOrStdout(), reminders)
			return nil
		},
	}
	cmd.Flags().String("dob", "", "Date of birth (YYYY-MM-DD)")
	cmd.Flags().StringArray("history", nil, "Vaccine already given, as NAME or NAME@YYYY-MM-DD (repeatable)")
	cmd.Flags().StringArray("condition", nil, "Health condition (repeatable)")
	cmd.Flags().Bool("series-tracking", false, "Count history entries as doses instead of skipping the vaccine")
	cmd.Flags().Bool("json", false, "Print the API response body")
	cmd.Flags().String("file", "", "Catalog YAML file")
	cmd.MarkFlagRequired("dob")
	return cmd
}

// parseHistoryFlags splits NAME@DATE on the last '@'.
func parseHistoryFlags(values []string) []schedule.HistoryInput {
	out := make([]schedule.HistoryInput, 0, len(values))
	for _, v := range values {
		name, date := v, ""
		if i := strings.LastIndex(v, "@"); i >= 0 {
			name, date = v[:i], v[i+1:]
		}
		out = append(out, schedule.HistoryInput{VaccineName: strings.TrimSpace(name), DateGiven: strings.TrimSpace(date)})
	}
	return out
}

func printReminders(out io.Writer, reminders []schedule.Reminder) {
	if len(reminders) == 0 {
		fmt.Fprintln(out, "Nothing due.")
		return
	}
	fmt.Fprintf(out, "%-10s %-13s %-4s %s\n", "DUE", "URGENCY", "DOSE", "VACCINE")
	for _, r := range reminders {
		due := "-"
		if r.DueDate != nil {
			due = r.DueDate.String()
		}
		fmt.Fprintf(out, "%-10s %-13s %-4d %s\n", due, r.UrgencyLevel, r.DoseNumber, r.Name)
		fmt.Fprintf(out, "           %s\n", r.UIReminderText)
	}
}
