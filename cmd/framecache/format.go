package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"framecache/internal/framecache"
)

// printOrEncode writes v as indented JSON when asJSON is set and otherwise
// hands it to print.
func printOrEncode[T any](cmd *cobra.Command, asJSON bool, v T, print func(*cobra.Command, T)) error {
	if !asJSON {
		print(cmd, v)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// nonEmpty keeps an empty listing as [] rather than null in JSON output.
func nonEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func formatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

func formatCount[T ~int | ~int64](n T) string {
	return humanize.Comma(int64(n))
}

func formatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(100 * time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// strategyLabel turns "backward_block" into "Backward Block".
func strategyLabel(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if name == "" {
		return "-"
	}
	return cases.Title(language.English).String(name)
}

func blockState(b framecache.Block) string {
	if b.Locked {
		return "locked"
	}
	return "unlocked"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
