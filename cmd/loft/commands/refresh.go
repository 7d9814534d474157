package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jellydator/ttlcache/v3"
	"github.com/spf13/cobra"

	"github.com/loftfs/loft/internal/cli/output"
	"github.com/loftfs/loft/pkg/apps"
	"github.com/loftfs/loft/pkg/cache"
)

var refreshAssociationsCmd = &cobra.Command{
	Use:   "refresh-associations",
	Short: "Rebuild and show the file-type association index",
	Long: `Rebuild the extension-to-app handler index from the association table
and print the resulting mapping.

Useful for verifying which apps are registered as handlers after editing the
app_filetype_association table.

Examples:
  loft refresh-associations`,
	RunE: runRefreshAssociations,
}

func runRefreshAssociations(cmd *cobra.Command, args []string) error {
	cfg, s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	client := ttlcache.New[string, any]()
	appCache := apps.NewCache(s, client, apps.Config{
		ResultTTL:  cfg.Cache.ResultTTL,
		PendingTTL: cfg.Cache.PendingTTL,
	})

	if err := appCache.RefreshAssociations(ctx); err != nil {
		return err
	}

	assocs, err := s.ListAssociations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list associations: %w", err)
	}

	exts := make(map[string]bool)
	for _, assoc := range assocs {
		ext := strings.TrimPrefix(assoc.Type, ".")
		if ext != "" {
			exts[ext] = true
		}
	}
	sorted := make([]string, 0, len(exts))
	for ext := range exts {
		sorted = append(sorted, ext)
	}
	sort.Strings(sorted)

	table := output.NewTableData("EXTENSION", "HANDLER APPS")
	for _, ext := range sorted {
		ids := appCache.AppIDsForExt(ext)
		names := make([]string, 0, len(ids))
		for _, id := range ids {
			app, err := appCache.Get(ctx, cache.IDKey(id), false)
			if err != nil {
				return err
			}
			if app == nil {
				names = append(names, fmt.Sprintf("#%d (missing)", id))
				continue
			}
			names = append(names, app.Name)
		}
		table.AddRow(ext, strings.Join(names, ", "))
	}
	return output.PrintTable(os.Stdout, table)
}
