package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"msglens/internal/session"
)

// askCmd runs a single turn without the TUI, for scripting and quick checks.
// Each invocation is its own session, so the filter context starts empty.
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question about the dataset and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}

		client, err := newOracleClient()
		if err != nil {
			return err
		}

		sess := session.New(ds, newAdapter(client, ds), cfg.Spike.ZThreshold, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), turnTimeout)
		defer cancel()

		result := sess.HandleTurn(ctx, strings.Join(args, " "))
		fmt.Println(renderTurn(result, cfg.Spike.ZThreshold))
		return nil
	},
}
