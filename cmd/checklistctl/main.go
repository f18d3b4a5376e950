// checklistctl drives the checklist template engine from the command
// line: applying seed files, inspecting templates, and exercising the
// per-user read and toggle paths.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/checklist-sync/internal/checklist"
	"github.com/nhle/checklist-sync/internal/config"
	"github.com/nhle/checklist-sync/internal/model"
	"github.com/nhle/checklist-sync/internal/seed"
	"github.com/nhle/checklist-sync/internal/store"
)

var (
	cfgPath string
	dbPath  string
)

func main() {
	root := &cobra.Command{
		Use:           "checklistctl",
		Short:         "Manage checklist templates and per-user copies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultConfigPath(),
		"path to config file")
	root.PersistentFlags().StringVar(&dbPath, "db", "",
		"sqlite database path (overrides config)")

	root.AddCommand(newSeedCmd(), newListCmd(), newShowCmd(), newToggleCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "checklistctl: %v\n", err)
		os.Exit(1)
	}
}

// openEnv loads config, builds the logger, and opens the store.
func openEnv() (*config.Config, *zap.Logger, *store.SQLiteStore, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = zap.NewAtomicLevelAt(level)
	log, err := logCfg.Build()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building logger: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, st, nil
}

func newSeedCmd() *cobra.Command {
	var (
		file    string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Reconcile checklist templates from seed files",
		Long: "Loads checklist seed JSON (a file via --file, otherwise every " +
			".json file in the configured seed directory) and reconciles each " +
			"template, propagating structural changes to all per-user copies.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, st, err := openEnv()
			if err != nil {
				return err
			}
			defer st.Close()
			defer log.Sync()

			var loaded []seedEntry
			if file != "" {
				s, err := seed.LoadFile(file)
				if err != nil {
					return err
				}
				loaded = append(loaded, seedEntry{source: file, seeds: s})
			} else {
				s, err := seed.LoadDir(cfg.SeedDir)
				if err != nil {
					return err
				}
				loaded = append(loaded, seedEntry{source: cfg.SeedDir, seeds: s})
			}

			rec := checklist.NewReconciler(st, log)
			for _, entry := range loaded {
				for _, s := range entry.seeds {
					var err error
					if replace {
						_, err = rec.Replace(cmd.Context(), s)
					} else {
						_, err = rec.Apply(cmd.Context(), s)
					}
					if err != nil {
						return fmt.Errorf("seeding %q from %s: %w", s.Name, entry.source, err)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed a single file instead of the seed directory")
	cmd.Flags().BoolVar(&replace, "replace", false,
		"delete each named template and its per-user copies before seeding")
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checklist templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, st, err := openEnv()
			if err != nil {
				return err
			}
			defer st.Close()
			defer log.Sync()

			checklists, total, err := st.ListChecklists(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			for _, cl := range checklists {
				fmt.Printf("%s\t%s\t%s\n", cl.ID, cl.Name, cl.Version)
			}
			fmt.Printf("%d of %d checklist(s)\n", len(checklists), total)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum templates to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "templates to skip")
	return cmd
}

func newShowCmd() *cobra.Command {
	var (
		userID string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a user's copy of a checklist, creating it on first access",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, st, err := openEnv()
			if err != nil {
				return err
			}
			defer st.Close()
			defer log.Sync()

			svc := checklist.NewService(st, log)
			uc, err := svc.GetOrCreate(cmd.Context(), userID, name)
			if err != nil {
				return err
			}

			fmt.Printf("%s (user %s, updated %s)\n", name, uc.UserID,
				uc.UpdatedAt.Format("2006-01-02 15:04:05"))
			for _, item := range uc.Items {
				mark := " "
				if item.IsComplete {
					mark = "x"
				}
				fmt.Printf("[%s] %s\t%s\n", mark, item.ID, item.Item.DisplayText)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "acting user id")
	cmd.Flags().StringVar(&name, "name", "", "checklist template name")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newToggleCmd() *cobra.Command {
	var (
		userID string
		itemID string
		undo   bool
	)
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Mark a per-user checklist item complete (or incomplete with --undo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, st, err := openEnv()
			if err != nil {
				return err
			}
			defer st.Close()
			defer log.Sync()

			svc := checklist.NewService(st, log)
			item, err := svc.SetComplete(cmd.Context(), userID, itemID, !undo)
			if err != nil {
				return err
			}

			state := "complete"
			if !item.IsComplete {
				state = "incomplete"
			}
			fmt.Printf("%s: %s\n", item.Item.DisplayText, state)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "acting user id")
	cmd.Flags().StringVar(&itemID, "item", "", "user checklist item id")
	cmd.Flags().BoolVar(&undo, "undo", false, "mark incomplete instead of complete")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("item")
	return cmd
}

// seedEntry pairs loaded seeds with where they came from, for error
// messages.
type seedEntry struct {
	source string
	seeds  []model.ChecklistSeed
}
