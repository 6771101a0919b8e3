package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"axis/internal/action"
	"axis/internal/config"
	"axis/internal/history"
	"axis/internal/kernel"
	"axis/internal/memory"
	"axis/internal/observer"
	"axis/internal/perception"
	"axis/internal/router"
	"axis/internal/store"
	"axis/internal/system"
	"axis/internal/vision"
	"axis/internal/web"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dataDir    string
	sessionID  string

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "axis",
	Short: "Axis - personal assistant kernel",
	Long: `Axis is a desktop assistant kernel: a local arbiter routes each
request to the best backend (GPT, Gemini, Grok, or the local model),
memories from past sessions ride along as context, and the answer may
drive the desktop itself (launch apps, type, search, save files).

Run without arguments to start the interactive shell.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell()
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [request]",
	Short: "Run a single request through the pipeline",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		answer, err := rt.kernel.Ask(cmd.Context(), sessionID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the stored conversation turns",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		turns, err := rt.history.All()
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			fmt.Println("No history yet.")
			return nil
		}
		for _, t := range turns {
			fmt.Printf("[%s] %s\n  User: %s\n  Axis: %s\n", t.SessionID, t.ProviderUsed, t.Input, t.Output)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [session]",
	Short: "Delete every turn of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.history.DeleteSession(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s.\n", args[0])
		return nil
	},
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect the memory index",
}

var memorySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Score stored memories against a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		hits, err := rt.memory.SearchTopK(strings.Join(args, " "), 10)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matching memories.")
			return nil
		}
		for _, h := range hits {
			fmt.Printf("%.2f  %s  %s\n", h.Score, h.ID, firstLine(h.Entry.Input.Text))
		}
		return nil
	},
}

var memoryContextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Show the context block recall would hand to a worker",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		block := rt.memory.BuildContext(strings.Join(args, " "), rt.cfg.Memory.RecallLimit)
		if block == "" {
			fmt.Println("No relevant memories.")
			return nil
		}
		fmt.Println(block)
		return nil
	},
}

var beliefCmd = &cobra.Command{
	Use:   "belief",
	Short: "Read and write durable key/value beliefs",
}

var beliefSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Store or overwrite a belief",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.store == nil {
			return fmt.Errorf("relational sink unavailable")
		}
		return rt.store.SetBelief(cmd.Context(), args[0], args[1])
	},
}

var beliefGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Look up a belief",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.store == nil {
			return fmt.Errorf("relational sink unavailable")
		}
		b, ok, err := rt.store.GetBelief(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("(not set)")
			return nil
		}
		fmt.Println(b.Value)
		return nil
	},
}

var goalPriority int

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Track open goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add an open goal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.store == nil {
			return fmt.Errorf("relational sink unavailable")
		}
		id, err := rt.store.AddGoal(cmd.Context(), strings.Join(args, " "), goalPriority, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Goal %d added.\n", id)
		return nil
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open goals by priority",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.store == nil {
			return fmt.Errorf("relational sink unavailable")
		}
		goals, err := rt.store.ListGoals(cmd.Context(), "open")
		if err != nil {
			return err
		}
		if len(goals) == 0 {
			fmt.Println("No open goals.")
			return nil
		}
		for _, g := range goals {
			fmt.Printf("%d  [p%d]  %s\n", g.ID, g.Priority, g.Title)
		}
		return nil
	},
}

var goalDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Mark a goal as done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()
		if rt.store == nil {
			return fmt.Errorf("relational sink unavailable")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid goal id %q", args[0])
		}
		return rt.store.SetGoalStatus(cmd.Context(), id, "done")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show host vitals and the focused window",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctl := system.NewController(logger)
		s := ctl.Stats()
		fmt.Printf("load1: %.2f\n", s.Load1)
		if s.MemTotalMB > 0 {
			fmt.Printf("memory: %d/%d MB\n", s.MemUsedMB, s.MemTotalMB)
		}
		if title := ctl.ForegroundWindow(); title != "" {
			fmt.Printf("focused: %s\n", title)
		}
		return nil
	},
}

// runtime bundles everything one command invocation needs.
type runtime struct {
	cfg     *config.Config
	kernel  *kernel.Kernel
	history *history.Log
	memory  *memory.Index
	store   *store.DB
	ctl     *system.Controller
}

func (rt *runtime) close() {
	if rt.store != nil {
		_ = rt.store.Close()
	}
}

func buildRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	mem, err := memory.NewIndex(filepath.Join(cfg.DataDir, "axis_memory"), logger)
	if err != nil {
		return nil, err
	}
	hist, err := history.NewLog(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}

	// The relational sink is secondary; a broken database must not take
	// the assistant down.
	db, err := store.Open(filepath.Join(cfg.DataDir, "memory.db"), logger)
	if err != nil {
		logger.Warn("relational sink unavailable", zap.Error(err))
		db = nil
	}

	workers := perception.NewWorkerSet(cfg, logger)
	ctl := system.NewController(logger)

	interp := &action.Interpreter{
		Desktop:   ctl,
		Primary:   web.Grokipedia{},
		Fallback:  web.NewDuckDuckGo(logger),
		Camera:    vision.NewScreen(logger),
		Vision:    workers.Vision,
		OutputDir: cfg.OutputDir,
		Logger:    logger,
	}

	k := kernel.New(cfg, workers,
		router.New(workers.Arbiter, loadCatalog(cfg.DataDir), logger),
		mem, db, hist, interp, logger)

	return &runtime{cfg: cfg, kernel: k, history: hist, memory: mem, store: db, ctl: ctl}, nil
}

// runShell is the interactive loop; observer notifications surface
// between prompts.
func runShell() error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if rt.cfg.Observer.Enabled {
		obs := observer.New(rt.ctl, rt.cfg.Observer.PollInterval(), rt.cfg.Observer.StalePolls, logger)
		obs.Start(ctx)
		go func() {
			for n := range obs.Notifications() {
				fmt.Printf("\n[axis] %s\naxis> ", n.Message)
			}
		}()
	}

	fmt.Printf("Axis ready. Session %q. Type 'exit' to quit.\n", sessionID)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("axis> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		answer, err := rt.kernel.Ask(ctx, sessionID, line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
	return scanner.Err()
}

// loadCatalog prefers a profiles.json in the data dir over the embedded
// defaults, so capability scores can be tuned without a rebuild.
func loadCatalog(dataDir string) router.Catalog {
	data, err := os.ReadFile(filepath.Join(dataDir, "profiles.json"))
	if err != nil {
		return router.DefaultCatalog()
	}
	c, err := router.ParseCatalog(data)
	if err != nil {
		logger.Warn("ignoring malformed profiles.json", zap.Error(err))
		return router.DefaultCatalog()
	}
	return c
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: $AXIS_CONFIG or <data-dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override the data directory")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "default", "Session identifier")

	goalAddCmd.Flags().IntVar(&goalPriority, "priority", 0, "Goal priority (higher sorts first)")

	historyCmd.AddCommand(historyDeleteCmd)
	memoryCmd.AddCommand(memorySearchCmd, memoryContextCmd)
	beliefCmd.AddCommand(beliefSetCmd, beliefGetCmd)
	goalCmd.AddCommand(goalAddCmd, goalListCmd, goalDoneCmd)
	rootCmd.AddCommand(askCmd, historyCmd, memoryCmd, beliefCmd, goalCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
