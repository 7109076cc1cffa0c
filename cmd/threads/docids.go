package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"threadscli/pkg/docid"
	"threadscli/pkg/threads"
)

var (
	docIDsRefresh bool
	docIDsClear   bool
)

// docIDsCmd shows the GraphQL doc ids in use. It needs no session since
// discovery only reads public pages.
var docIDsCmd = &cobra.Command{
	Use:   "docids",
	Short: "Show or refresh the cached GraphQL doc ids",
	Long: `Show the GraphQL doc ids used for each query.

Ids are discovered from the threads.com web bundles and cached for 24 hours.
Queries whose id could not be discovered use a built-in fallback.`,
	Example: `  threads docids
  threads docids --refresh
  threads docids --clear`,
	Args: cobra.NoArgs,
	RunE: runDocIDs,
}

func init() {
	docIDsCmd.Flags().BoolVar(&docIDsRefresh, "refresh", false, "rediscover ids even if the cache is fresh")
	docIDsCmd.Flags().BoolVar(&docIDsClear, "clear", false, "delete the cache file and exit")
	rootCmd.AddCommand(docIDsCmd)
}

type docIDEntry struct {
	Query     docid.Query `json:"query"`
	Operation string      `json:"operation"`
	DocID     string      `json:"doc_id"`
	Source    string      `json:"source"`
}

type docIDReport struct {
	CachePath    string       `json:"cache_path"`
	DiscoveredAt *time.Time   `json:"discovered_at,omitempty"`
	Entries      []docIDEntry `json:"entries"`
}

func runDocIDs(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := threads.NewDocIDCache(cfg, log)
	if err != nil {
		return err
	}
	store := cache.Store()

	if docIDsClear {
		if err := store.Delete(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", store.Path())
		return nil
	}

	set, err := cache.Get(cmd.Context(), docIDsRefresh || refreshIDs)
	if err != nil {
		return err
	}

	discovered := make(map[docid.Query]bool)
	for _, q := range set.Overrides() {
		discovered[q] = true
	}
	report := docIDReport{CachePath: store.Path()}
	if rec, _ := store.Load(); rec != nil {
		t := rec.Time()
		report.DiscoveredAt = &t
	}
	for _, q := range docid.Queries {
		source := "fallback"
		if discovered[q] {
			source = "discovered"
		}
		report.Entries = append(report.Entries, docIDEntry{
			Query:     q,
			Operation: docid.OperationName(q),
			DocID:     set.ID(q),
			Source:    source,
		})
	}

	out := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Output)
	if out.json {
		return out.JSON(report)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "cache: %s\n", report.CachePath)
	if report.DiscoveredAt != nil {
		fmt.Fprintf(w, "discovered: %s\n", report.DiscoveredAt.Format(time.RFC3339))
	}
	fmt.Fprintln(w)
	for _, e := range report.Entries {
		fmt.Fprintf(w, "%-16s %-20s %-10s %s\n", e.Query, e.DocID, e.Source, e.Operation)
	}
	return nil
}
