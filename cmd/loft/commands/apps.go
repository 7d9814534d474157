package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loftfs/loft/internal/cli/output"
)

var appsOutput string

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Inspect application records",
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered applications",
	Long: `List every application registered in the metadata database.

Examples:
  # List apps as a table
  loft apps list

  # List apps as JSON
  loft apps list --output json`,
	RunE: runAppsList,
}

func init() {
	appsListCmd.Flags().StringVarP(&appsOutput, "output", "o", "table", "Output format (table|json|yaml)")
	appsCmd.AddCommand(appsListCmd)
}

func runAppsList(cmd *cobra.Command, args []string) error {
	_, s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	apps, err := s.ListApps(context.Background(), false)
	if err != nil {
		return fmt.Errorf("failed to list apps: %w", err)
	}

	format, err := output.ParseFormat(appsOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, apps)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, apps)
	default:
		table := output.NewTableData("NAME", "UID", "TITLE", "LISTED", "OPENS ITEMS")
		for _, app := range apps {
			table.AddRow(
				app.Name,
				app.UID,
				app.Title,
				fmt.Sprintf("%t", app.ApprovedForListing),
				fmt.Sprintf("%t", app.ApprovedForOpeningItems),
			)
		}
		return output.PrintTable(os.Stdout, table)
	}
}
