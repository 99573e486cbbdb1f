package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stacker/internal/codec"
	"github.com/vovakirdan/stacker/internal/shapes"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <code>",
	Short: "Show the shapes stored in a share code",
	Long: `Decode a share code and list every shape with its position and
rotation, followed by the tower height and leaderboard hash.

Examples:
  stacker decode AAEA_38AAQT_fw8A`,
	Args: cobra.ExactArgs(1),
	Run:  runDecode,
}

func runDecode(cmd *cobra.Command, args []string) {
	cat := shapes.Standard()
	items := decodeOrExit(args[0])

	t := newTable("#", "Shape", "Locked", "X", "Y", "Angle°")
	for i, item := range items {
		t.Row(
			strconv.Itoa(i),
			cat.Get(item.Shape).Name,
			strconv.FormatBool(item.Locked),
			formatFloat(item.Location.Position.X),
			formatFloat(item.Location.Position.Y),
			formatFloat(item.Location.Angle*360/6.2831855),
		)
	}
	fmt.Println(t)

	v := codec.ToShapesVec(items)
	fmt.Printf("Shapes: %d  Height: %s  Hash: %d\n", len(v), formatFloat(v.TowerHeight(cat)), v.Hash())
}

// decodeOrExit parses a share code with the configured world bounds.
func decodeOrExit(code string) []codec.FixedShape {
	c := codec.New(shapes.Standard(), cfg.World.Width, cfg.World.Height)
	items, err := c.DecodeString(code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return items
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 1, 32)
}
