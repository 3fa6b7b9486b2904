package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"msglens/internal/cluster"
)

var (
	clusterIn  string
	clusterOut string
	clusterK   int
)

// clusterCmd embeds the raw messages and groups them with k-means, writing
// the input CSV back out with an extra "cluster" column. Requires a Gemini
// API key for embeddings.
var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Embed raw messages and group them into clusters",
	RunE: func(cmd *cobra.Command, args []string) error {
		k := clusterK
		if k <= 0 {
			k = cfg.Cluster.K
		}

		table, err := cluster.ReadTable(clusterIn)
		if err != nil {
			return err
		}
		msgCol, err := table.Column("message")
		if err != nil {
			return err
		}

		texts := make([]string, len(table.Rows))
		for i, row := range table.Rows {
			texts[i] = row[msgCol]
		}
		logger.Info("embedding messages", zap.Int("count", len(texts)))

		embedder, err := cluster.NewEmbedder(cmd.Context(), cfg.LLM.APIKey, cfg.Cluster.EmbedModel)
		if err != nil {
			return err
		}
		defer embedder.Close()

		vectors, err := embedder.EmbedAll(cmd.Context(), texts)
		if err != nil {
			return fmt.Errorf("embedding failed: %w", err)
		}

		assignments, err := cluster.KMeans(vectors, cluster.DefaultKMeansOptions(k))
		if err != nil {
			return fmt.Errorf("clustering failed: %w", err)
		}

		values := make([]string, len(assignments))
		for i, c := range assignments {
			values[i] = strconv.Itoa(c)
		}
		if err := table.AppendColumn("cluster", values); err != nil {
			return err
		}
		if err := table.Write(clusterOut); err != nil {
			return err
		}

		logger.Info("clustered messages written",
			zap.String("path", clusterOut),
			zap.Int("clusters", k))
		return nil
	},
}

func init() {
	clusterCmd.Flags().StringVar(&clusterIn, "in", "messages.csv", "raw message CSV")
	clusterCmd.Flags().StringVar(&clusterOut, "out", "clustered_messages.csv", "output CSV with cluster column")
	clusterCmd.Flags().IntVar(&clusterK, "k", 0, "number of clusters (default from config)")
}
