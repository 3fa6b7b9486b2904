package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"msglens/internal/cluster"
)

var (
	nameIn      string
	nameOut     string
	nameSuggest bool
)

// nameCmd walks each cluster, shows sampled messages, and asks for a category
// name. With --suggest the LLM proposes a label per cluster first (computed
// in parallel up front); pressing enter accepts the suggestion.
var nameCmd = &cobra.Command{
	Use:   "name",
	Short: "Interactively name each message cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := cluster.ReadTable(nameIn)
		if err != nil {
			return err
		}
		msgCol, err := table.Column("message")
		if err != nil {
			return err
		}
		clusterCol, err := table.Column("cluster")
		if err != nil {
			return err
		}

		byCluster := make(map[int][]string)
		for _, row := range table.Rows {
			id, err := strconv.Atoi(row[clusterCol])
			if err != nil {
				return fmt.Errorf("bad cluster id %q: %w", row[clusterCol], err)
			}
			byCluster[id] = append(byCluster[id], row[msgCol])
		}

		ids := make([]int, 0, len(byCluster))
		for id := range byCluster {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		fmt.Printf("Found %d clusters: %v\n", len(ids), ids)

		samples := make(map[int][]string, len(ids))
		rng := rand.New(rand.NewSource(42))
		for _, id := range ids {
			samples[id] = sampleMessages(byCluster[id], cfg.Cluster.SamplesPerName, rng)
		}

		suggestions := map[int]string{}
		if nameSuggest {
			client, err := newOracleClient()
			if err != nil {
				return err
			}
			namer := cluster.NewNamer(client, cfg.Cluster.NameWorkers)
			suggestions, err = namer.Suggest(cmd.Context(), samples)
			if err != nil {
				return fmt.Errorf("label suggestion failed: %w", err)
			}
			logger.Info("label suggestions ready", zap.Int("clusters", len(suggestions)))
		}

		mapping := make(map[int]string, len(ids))
		reader := bufio.NewReader(os.Stdin)
		for _, id := range ids {
			fmt.Printf("\n=== Cluster %d ===\n", id)
			for i, msg := range samples[id] {
				fmt.Printf("%d. %s\n", i+1, msg)
			}

			prompt := fmt.Sprintf("\nEnter a category name for cluster %d: ", id)
			if suggestion, ok := suggestions[id]; ok {
				prompt = fmt.Sprintf("\nEnter a category name for cluster %d [%s]: ", id, suggestion)
			}
			fmt.Print(prompt)

			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read name: %w", err)
			}
			name := strings.TrimSpace(line)
			if name == "" {
				name = suggestions[id]
			}
			mapping[id] = name
		}

		if err := cluster.WriteMapping(nameOut, mapping); err != nil {
			return err
		}
		fmt.Printf("\nSaved cluster-category mapping to %q\n", nameOut)
		return nil
	},
}

// sampleMessages picks up to n messages without replacement.
func sampleMessages(messages []string, n int, rng *rand.Rand) []string {
	if len(messages) <= n {
		return messages
	}
	picked := rng.Perm(len(messages))[:n]
	sort.Ints(picked)
	out := make([]string, n)
	for i, idx := range picked {
		out[i] = messages[idx]
	}
	return out
}

func init() {
	nameCmd.Flags().StringVar(&nameIn, "in", "clustered_messages.csv", "clustered message CSV")
	nameCmd.Flags().StringVar(&nameOut, "out", "cluster_category_mapping.csv", "output mapping CSV")
	nameCmd.Flags().BoolVar(&nameSuggest, "suggest", false, "ask the LLM to propose labels")
}
