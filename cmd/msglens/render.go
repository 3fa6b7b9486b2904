package main

import (
	"fmt"
	"strings"

	"msglens/internal/session"
	"msglens/internal/stats"
)

const timeFormat = "Jan 02, 2006 at 15:04"

// renderTurn formats one turn's outcome as markdown for display.
func renderTurn(result session.TurnResult, zThreshold float64) string {
	switch result.Kind {
	case session.KindExit:
		return "Goodbye."
	case session.KindReset:
		return "Filter context has been reset."
	case session.KindNotUnderstood:
		return "Sorry, I couldn't understand your request."
	}

	var sb strings.Builder
	sb.WriteString("**Summary**\n\n")
	if result.Summary.Total > 0 {
		fmt.Fprintf(&sb, "- Time range: %s → %s\n",
			result.Summary.Start.Format(timeFormat),
			result.Summary.End.Format(timeFormat))
	}
	fmt.Fprintf(&sb, "- Total messages: %d\n", result.Summary.Total)
	fmt.Fprintf(&sb, "- Unique users: %d\n", result.Summary.UniqueUsers)

	if result.Spikes != nil {
		sb.WriteString("\n")
		sb.WriteString(renderSpikes(*result.Spikes, zThreshold))
	}

	if len(result.Summary.Preview) > 0 {
		sb.WriteString("\n**First few entries**\n\n")
		sb.WriteString("| timestamp | user | source | category | message |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, m := range result.Summary.Preview {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				m.Timestamp.Format("2006-01-02 15:04:05"),
				m.UserID, m.Source, m.Category,
				strings.ReplaceAll(m.Message, "|", "\\|"))
		}
	}

	return sb.String()
}

func renderSpikes(report stats.SpikeReport, zThreshold float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Analyzing category: %s**\n\n", report.Category)

	if report.Insufficient {
		sb.WriteString("Not enough data for spike detection (need at least 2 active days of history).\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Global stats: mean %.2f, std dev %.2f messages/day.\n\n",
		report.BaselineMean, report.BaselineStd)

	if len(report.Spikes) == 0 {
		sb.WriteString("No significant spikes detected.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Spike detection (|z| >= %.1f):\n\n", zThreshold)
	for _, s := range report.Spikes {
		fmt.Fprintf(&sb, "- %s: z = %.2f, count = %d\n",
			s.Day.Format("2006-01-02"), s.Z, s.Count)
	}
	return sb.String()
}
