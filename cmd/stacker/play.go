package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/stacker/internal/codec"
	"github.com/vovakirdan/stacker/internal/core"
	"github.com/vovakirdan/stacker/internal/levels"
	"github.com/vovakirdan/stacker/internal/lifecycle"
	"github.com/vovakirdan/stacker/internal/predict"
	"github.com/vovakirdan/stacker/internal/reconcile"
	"github.com/vovakirdan/stacker/internal/shapes"
	"github.com/vovakirdan/stacker/internal/spawn"
	"github.com/vovakirdan/stacker/internal/storage"
)

var (
	flagResume   bool
	flagNoSave   bool
	flagMaxTicks int
)

var playCmd = &cobra.Command{
	Use:   "play <level>",
	Short: "Run a level until it completes",
	Long: `Run the specified level headlessly. Shapes are spawned stage by stage
and simulated; every time the tower settles the engine forecasts whether it
will hold and confirms the stage after a countdown.

On completion the tower height is recorded under the level's hash, and the
final arrangement is saved so a later run can resume from it.

Examples:
  stacker play 01-first-steps
  stacker play 02-anchors --seed 42
  stacker play 03-over-the-void --resume
  stacker play 01-first-steps --max-ticks 600 --no-save`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagResume, "resume", false, "Start from the saved arrangement, if any")
	playCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not store the arrangement or height")
	playCmd.Flags().IntVar(&flagMaxTicks, "max-ticks", 36000, "Give up after this many ticks")
}

func runPlay(cmd *cobra.Command, args []string) {
	lvl := mustLevel(args[0])

	// Open storage; the run continues without it
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open database", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	var saved shapes.ShapesVec
	if flagResume && store != nil {
		v, ok, err := store.LoadArrangement(lvl.ID)
		switch {
		case err != nil:
			logger.Warn("could not load saved arrangement", "error", err)
		case !ok:
			logger.Info("no saved arrangement, starting fresh", "level", lvl.ID)
		default:
			saved = v
			logger.Info("resuming saved arrangement", "level", lvl.ID, "shapes", len(v))
		}
	}

	m := newMachine(store)
	m.Enter(lvl, saved)

	runtime := cfg.Runtime(flagSeed)
	logger.Debug("starting level", "level", lvl.ID, "seed", runtime.Seed, "fps", runtime.TickRate)

	input := core.NewInputFrame()
	for m.Ticks() < uint64(flagMaxTicks) {
		ev := m.Tick(input)
		switch ev {
		case lifecycle.EventStageAdvanced:
			stage := m.Completion().Stage
			logger.Info("stage", "n", stage, "text", lvl.Stage(stage).Text)
		case lifecycle.EventFailed:
			logger.Warn("attempt failed", "attempt", m.Attempts()-1)
		}
		if m.Completion().Complete {
			break
		}
	}

	if !flagNoSave && store != nil {
		if err := store.SaveArrangement(lvl.ID, m.Arrangement()); err != nil {
			logger.Warn("could not save arrangement", "error", err)
		}
	}

	c := m.Completion()
	if !c.Complete {
		fmt.Fprintf(os.Stderr, "Level %s not completed after %d ticks (stage %d, %d attempts).\n",
			lvl.ID, m.Ticks(), c.Stage, m.Attempts())
		os.Exit(1)
	}

	if !flagNoSave && store != nil {
		if _, err := store.SaveHeight(c.Score.Hash, c.Score.Height, c.Score.ShareCode); err != nil {
			logger.Warn("could not save height", "error", err)
		}
	}
	printResult(lvl, m, *c.Score)
}

// newMachine wires the engine from the loaded config.
func newMachine(store *storage.Store) *lifecycle.Machine {
	cat := shapes.Standard()
	opts := lifecycle.Options{
		Catalog:       cat,
		Codec:         codec.New(cat, cfg.World.Width, cfg.World.Height),
		Reconciler:    reconcile.New(cfg.MatchPolicy(), logger),
		Predictor:     predict.New(cfg.PredictorSettings()),
		Spawn:         spawn.NewManager(cat, cfg.Gravity(), cfg.Field(), flagSeed, logger),
		Logger:        logger,
		TickSeconds:   cfg.Runtime(flagSeed).TickSeconds(),
		Gravity:       cfg.Gravity(),
		PersistPolicy: cfg.PersistPolicy(),
		RestartOnFail: cfg.Lifecycle.RestartOnFail,
		Seed:          flagSeed,
	}
	// A nil *Store in the interface would not read as "no records".
	if store != nil {
		opts.Records = store
	}
	return lifecycle.New(opts)
}

func printResult(lvl *levels.Level, m *lifecycle.Machine, score reconcile.ScoreInfo) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s complete", lvl.Name)))
	if lvl.EndText != "" {
		fmt.Println(lvl.EndText)
	}

	t := newTable("Result", "Value")
	t.Row("Height", strconv.FormatFloat(float64(score.Height), 'f', 1, 32))
	t.Row("Hash", strconv.FormatInt(score.Hash, 10))
	t.Row("Ticks", strconv.FormatUint(m.Ticks(), 10))
	t.Row("Attempts", strconv.Itoa(m.Attempts()))
	t.Row("Share code", score.ShareCode)
	fmt.Println(t)

	if score.IsRecord {
		fmt.Println(recordStyle.Render("New record!"))
	}
}
