// stacker runs the stacking puzzle level engine headlessly from the terminal.
//
// Usage:
//
//	stacker list              - List available levels
//	stacker play <level>      - Run a level until it completes
//	stacker decode <code>     - Show the shapes in a share code
//	stacker hash <code>       - Print the leaderboard hash of a share code
//	stacker scores <level>    - Show the best towers for a level
//
// Global flags:
//
//	--fps <rate>      - Set tick rate (default: from config)
//	--seed <value>    - Set RNG seed for reproducible placement
//	--db <path>       - Set database path (default: ~/.stacker/stacker.db)
//	--config <path>   - Use a custom config YAML
//	--levels <dir>    - Load extra YAML levels from a directory
//	--verbose         - Enable debug logging
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/stacker/internal/config"
	"github.com/vovakirdan/stacker/internal/levels"
	"github.com/vovakirdan/stacker/internal/registry"
	"github.com/vovakirdan/stacker/internal/shapes"

	// Import built-in levels to register them
	_ "github.com/vovakirdan/stacker/internal/levels/builtin"
)

var (
	// Global flags
	flagFPS       int
	flagSeed      int64
	flagDBPath    string
	flagConfig    string
	flagLevelsDir string
	flagVerbose   bool

	cfg    config.Config
	logger *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stacker",
	Short: "Stacker - a physics stacking puzzle engine",
	Long: `Stacker runs stacking puzzle levels headlessly: shapes are spawned,
simulated until they settle, and each stage is confirmed by forecasting
whether the tower will hold.

Available commands:
  list     - Show all available levels
  play     - Run a level until it completes
  decode   - Show the shapes stored in a share code
  hash     - Print the leaderboard hash of a share code
  scores   - View the best towers for a level

Examples:
  stacker list
  stacker play 01-first-steps --seed 42
  stacker play 02-anchors --resume
  stacker decode AAEA...
  stacker scores 01-first-steps`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 0, "Tick rate (0 = from config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.stacker/stacker.db", "Path to database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLevelsDir, "levels", "", "Directory with extra YAML levels")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(scoresCmd)
}

// setup builds the logger, loads config and registers extra levels.
func setup(cmd *cobra.Command, args []string) error {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "stacker",
	})
	if flagVerbose {
		logger.SetLevel(log.DebugLevel)
	}

	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagFPS > 0 {
		cfg.Physics.TickRate = flagFPS
	}
	if flagSeed == 0 {
		flagSeed = time.Now().UnixNano()
	}

	if flagLevelsDir != "" {
		registerLevelsDir(flagLevelsDir)
	}
	return nil
}

// registerLevelsDir loads YAML levels from dir. Bad files and ids that clash
// with registered levels are logged and skipped.
func registerLevelsDir(dir string) {
	lvls, err := levels.NewLoader(dir, shapes.Standard()).LoadAll()
	if err != nil {
		logger.Warn("some levels could not be loaded", "dir", dir, "err", err)
	}
	for _, lvl := range lvls {
		if registry.Exists(lvl.ID) {
			logger.Warn("level id already registered, skipping", "id", lvl.ID, "file", lvl.FilePath)
			continue
		}
		registry.RegisterLevel(lvl)
		logger.Debug("registered level", "id", lvl.ID, "file", lvl.FilePath)
	}
}

// mustLevel exits with an error unless id is a registered level.
func mustLevel(id string) *levels.Level {
	lvl, err := registry.Create(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: unknown level %q\n", id)
		fmt.Fprintln(os.Stderr, "Run 'stacker list' to see available levels.")
		os.Exit(1)
	}
	return lvl
}
