package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stacker/internal/codec"
)

var hashCmd = &cobra.Command{
	Use:   "hash <code>",
	Short: "Print the leaderboard hash of a share code",
	Long: `Print the level hash of the arrangement in a share code. The hash
ignores positions and rotations, so every solution of a level shares it.

Share codes only carry a locked flag, so this matches the hash of a saved
arrangement whenever no shape was locked by the player.`,
	Args: cobra.ExactArgs(1),
	Run:  runHash,
}

func runHash(cmd *cobra.Command, args []string) {
	fmt.Println(codec.ToShapesVec(decodeOrExit(args[0])).Hash())
}
