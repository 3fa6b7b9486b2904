// Package main provides the msglens CLI entry point.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"msglens/internal/config"
	"msglens/internal/dataset"
	"msglens/internal/logging"
	"msglens/internal/oracle"
	"msglens/internal/store"
)

var (
	// Global flags
	cfgPath   string
	dataPath  string
	storePath string
	provider  string
	model     string
	verbose   bool

	// Shared state built in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command. Running it without a subcommand starts
// the interactive chat interface.
var rootCmd = &cobra.Command{
	Use:   "msglens",
	Short: "msglens - conversational analytics over categorized support messages",
	Long: `msglens answers natural-language questions about a dataset of
categorized customer support messages.

An external LLM translates each question into structured filters (category,
source, time range) that refine or reset the session's filter context; msglens
applies them, summarizes the matching messages, and flags days whose volume
spikes beyond the category's historical baseline.

The batch subcommands (cluster, name, merge) build the category labels in the
first place: they embed unlabeled messages, group them with k-means, and help
you name each group.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return err
		}

		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if dataPath != "" {
			cfg.Dataset.CSVPath = dataPath
		}
		if storePath != "" {
			cfg.Dataset.StorePath = storePath
		}
		if provider != "" {
			cfg.LLM.Provider = provider
		}
		if model != "" {
			cfg.LLM.Model = model
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

// loadDataset opens the configured dataset: the SQLite store when one is
// configured, the labeled CSV otherwise.
func loadDataset() (*dataset.Dataset, error) {
	if cfg.Dataset.StorePath != "" {
		st, err := store.Open(cfg.Dataset.StorePath)
		if err != nil {
			return nil, err
		}
		defer st.Close()

		ds, err := st.LoadDataset()
		if err != nil {
			return nil, err
		}
		logger.Info("dataset loaded from store",
			zap.String("path", cfg.Dataset.StorePath),
			zap.Int("messages", ds.Len()))
		return ds, nil
	}

	ds, err := dataset.LoadCSV(cfg.Dataset.CSVPath)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded",
		zap.String("path", cfg.Dataset.CSVPath),
		zap.Int("messages", ds.Len()),
		zap.Time("reference", ds.Reference()))
	return ds, nil
}

// newOracleClient builds the configured LLM provider client.
func newOracleClient() (oracle.LLMClient, error) {
	timeout := cfg.OracleTimeout()
	switch cfg.LLM.Provider {
	case "openai":
		c := oracle.DefaultOpenAIConfig(cfg.LLM.APIKey)
		c.Timeout = timeout
		if cfg.LLM.Model != "" {
			c.Model = cfg.LLM.Model
		}
		if cfg.LLM.BaseURL != "" {
			c.BaseURL = cfg.LLM.BaseURL
		}
		return oracle.NewOpenAIClientWithConfig(c), nil
	case "gemini":
		c := oracle.DefaultGeminiConfig(cfg.LLM.APIKey)
		c.Timeout = timeout
		if cfg.LLM.Model != "" {
			c.Model = cfg.LLM.Model
		}
		if cfg.LLM.BaseURL != "" {
			c.BaseURL = cfg.LLM.BaseURL
		}
		return oracle.NewGeminiClientWithConfig(c), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want openai or gemini)", cfg.LLM.Provider)
	}
}

// newAdapter binds the oracle client to a loaded dataset's vocabularies and
// reference instant.
func newAdapter(client oracle.LLMClient, ds *dataset.Dataset) *oracle.Adapter {
	return oracle.NewAdapter(client, ds.Categories(), ds.Sources(), ds.Reference(), logger)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "msglens.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "labeled message CSV (overrides config)")
	rootCmd.PersistentFlags().StringVar(&storePath, "db", "", "SQLite message store (overrides config)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "LLM provider: openai or gemini")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "LLM model override")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(clusterCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(mergeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// turnTimeout bounds a single oracle round trip from the front-ends.
const turnTimeout = 3 * time.Minute
