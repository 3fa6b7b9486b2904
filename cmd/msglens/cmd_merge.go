package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"msglens/internal/cluster"
	"msglens/internal/dataset"
	"msglens/internal/store"
)

var (
	mergeMessages string
	mergeMapping  string
	mergeOut      string
	mergeStore    string
)

// mergeCmd joins the cluster→category mapping into the clustered messages,
// producing the labeled CSV the chat core consumes, and optionally a SQLite
// store of the same data.
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Join category labels into the message dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := cluster.ReadTable(mergeMessages)
		if err != nil {
			return err
		}
		clusterCol, err := table.Column("cluster")
		if err != nil {
			return err
		}

		mapping, err := cluster.ReadMapping(mergeMapping)
		if err != nil {
			return err
		}

		categories := make([]string, len(table.Rows))
		unmapped := 0
		for i, row := range table.Rows {
			id, err := strconv.Atoi(row[clusterCol])
			if err != nil {
				return fmt.Errorf("bad cluster id %q: %w", row[clusterCol], err)
			}
			label, ok := mapping[id]
			if !ok {
				unmapped++
			}
			categories[i] = label
		}
		if unmapped > 0 {
			logger.Warn("rows with unmapped clusters left unlabeled", zap.Int("rows", unmapped))
		}

		if err := table.AppendColumn("category", categories); err != nil {
			return err
		}
		if err := table.Write(mergeOut); err != nil {
			return err
		}
		logger.Info("merged dataset written", zap.String("path", mergeOut))

		// Per-category counts, like the pipeline has always printed.
		counts := make(map[string]int)
		for _, c := range categories {
			if c != "" {
				counts[c]++
			}
		}
		fmt.Println("=== Message Counts per Category ===")
		for _, cat := range sortedKeys(counts) {
			fmt.Printf("%-30s %d\n", cat, counts[cat])
		}

		if mergeStore == "" {
			return nil
		}

		ds, err := dataset.LoadCSV(mergeOut)
		if err != nil {
			return fmt.Errorf("reloading merged dataset: %w", err)
		}
		st, err := store.Open(mergeStore)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Replace(ds.Messages()); err != nil {
			return err
		}
		stored, err := st.Count()
		if err != nil {
			return err
		}
		logger.Info("message store written",
			zap.String("path", mergeStore),
			zap.Int("messages", stored))
		return nil
	},
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// Count descending, then name.
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func init() {
	mergeCmd.Flags().StringVar(&mergeMessages, "messages", "clustered_messages.csv", "clustered message CSV")
	mergeCmd.Flags().StringVar(&mergeMapping, "mapping", "cluster_category_mapping.csv", "cluster-category mapping CSV")
	mergeCmd.Flags().StringVar(&mergeOut, "out", "merged_messages_with_categories.csv", "output labeled CSV")
	mergeCmd.Flags().StringVar(&mergeStore, "to-db", "", "also write a SQLite message store at this path")
}
