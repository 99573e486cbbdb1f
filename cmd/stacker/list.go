package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stacker/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available levels",
	Long:  `Shows a list of all levels registered with the engine.`,
	Run:   runList,
}

func runList(cmd *cobra.Command, args []string) {
	infos := registry.List()

	if len(infos) == 0 {
		fmt.Println("No levels available.")
		return
	}

	fmt.Println(titleStyle.Render("Available levels"))

	t := newTable("ID", "Name", "Stages")
	for _, info := range infos {
		t.Row(info.ID, info.Name, strconv.Itoa(info.Stages))
	}
	fmt.Println(t)

	fmt.Println(dimStyle.Render("Run 'stacker play <id>' to play a level."))
}
