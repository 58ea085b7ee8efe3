package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dittokv/pagestore/internal/cliout"
	"github.com/dittokv/pagestore/pkg/config"
	"github.com/dittokv/pagestore/pkg/page"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "List every live entry in a page file",
	Long: `Open a page file read-only (no writes are performed) and print a
table of every live key, its data type, and its offset.

Examples:
  # Dump the page file from the active configuration
  pagestore dump

  # Dump a specific page file
  pagestore dump --path /var/lib/pagestore/pagestore.dat`,
	RunE: runDump,
}

var dumpPath string

func init() {
	dumpCmd.Flags().StringVar(&dumpPath, "path", "", "page file path (default: from config)")
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	path := dumpPath
	if path == "" {
		path = cfg.Page.Path
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open page file: %w", err)
	}

	store, err := page.Open(path, uint64(cfg.Page.Capacity))
	if err != nil {
		return fmt.Errorf("failed to open page file: %w", err)
	}
	defer store.Close()

	entries := store.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Offset < entries[j].Offset })

	table := cliout.NewTableData("KEY", "TYPE", "OFFSET")
	for _, e := range entries {
		table.AddRow(e.Key, e.Type.String(), fmt.Sprintf("%d", e.Offset))
	}
	cliout.PrintTable(os.Stdout, table)

	stats := store.Stats()
	fmt.Printf("\n%d live entries, %d queued gaps, offset %d/%d\n",
		stats.LiveEntries, stats.QueuedGaps, stats.Offset, stats.Capacity)
	return nil
}
