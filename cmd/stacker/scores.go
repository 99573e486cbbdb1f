package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stacker/internal/reconcile"
	"github.com/vovakirdan/stacker/internal/storage"
)

var flagLimit int

var scoresCmd = &cobra.Command{
	Use:   "scores <level>",
	Short: "Show the best towers for a level",
	Long: `Display the highest towers recorded for the specified level.

Examples:
  stacker scores 01-first-steps
  stacker scores 02-anchors --limit 3`,
	Args: cobra.ExactArgs(1),
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of towers to show")
}

func runScores(cmd *cobra.Command, args []string) {
	lvl := mustLevel(args[0])
	hash := reconcile.New(cfg.MatchPolicy(), logger).LevelHash(lvl, cfg.PersistPolicy())

	// Open storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	entries, err := store.BestHeights(hash, flagLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving heights: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Best towers - %s", lvl.Name)))
	fmt.Println(dimStyle.Render(fmt.Sprintf("level hash %d", hash)))

	if len(entries) == 0 {
		fmt.Println("No towers recorded yet.")
		fmt.Printf("Play 'stacker play %s' to set the first record!\n", lvl.ID)
		return
	}

	t := newTable("Rank", "Height", "Date", "Share code")
	for i, e := range entries {
		t.Row(
			strconv.Itoa(i+1),
			formatFloat(e.Height),
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.ShareCode,
		)
	}
	fmt.Println(t)

	if stats, err := store.GetLevelStats(hash); err == nil {
		fmt.Printf("Completions: %d  Average: %.1f\n", stats.Completions, stats.AvgHeight)
	}
}
