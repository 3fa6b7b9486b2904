package cluster

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"msglens/internal/oracle"
)

const namerSystemPrompt = `You name clusters of customer support messages.
Given a sample of messages from one cluster, reply with a short lowercase
category label of at most three words, like "cashout issues" or "account
issues". Reply with the label only - no quotes, no commentary.`

// Namer asks the LLM for a suggested category label per cluster. Suggestions
// are only suggestions: the naming flow keeps a human in the loop and lets
// them override every label.
type Namer struct {
	client  oracle.LLMClient
	workers int
}

// NewNamer creates a namer running at most workers concurrent LLM calls.
func NewNamer(client oracle.LLMClient, workers int) *Namer {
	if workers <= 0 {
		workers = 4
	}
	return &Namer{client: client, workers: workers}
}

// Suggest returns a proposed label per cluster id, computed in parallel. A
// failed call leaves that cluster without a suggestion rather than failing
// the whole batch.
func (n *Namer) Suggest(ctx context.Context, samples map[int][]string) (map[int]string, error) {
	ids := make([]int, 0, len(samples))
	for id := range samples {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	labels := make([]string, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			var sb strings.Builder
			for j, msg := range samples[id] {
				fmt.Fprintf(&sb, "%d. %s\n", j+1, msg)
			}

			reply, err := n.client.CompleteWithSystem(ctx, namerSystemPrompt, sb.String())
			if err != nil {
				return nil // best effort per cluster
			}
			labels[i] = cleanLabel(reply)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int]string, len(ids))
	for i, id := range ids {
		if labels[i] != "" {
			out[id] = labels[i]
		}
	}
	return out, nil
}

// cleanLabel normalizes an LLM reply into a usable label: first line only,
// quotes stripped, lowercased.
func cleanLabel(reply string) string {
	line := reply
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.Trim(strings.TrimSpace(line), `"'`)
	return strings.ToLower(line)
}
