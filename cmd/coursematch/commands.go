package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/learnnova/coursematch/internal/config"
	"github.com/learnnova/coursematch/internal/source"
	"github.com/learnnova/coursematch/internal/storage"
)

// --- import ---

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON or YAML catalog snapshot into the local SQLite store",
	Long: `Import a catalog and user snapshot into the local SQLite store.

The snapshot has two lists, "items" ({_id, title, tags}) and "users"
({username, feedback: [{courseId, liked}]}). Items without an id get a
generated one. Existing courses are updated in place.

Examples:
  coursematch import --file ./catalog.json
  coursematch import --file ./export.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")
		if file == "" {
			return fmt.Errorf("--file is required")
		}
		if format == "" {
			format = source.FormatOf(file)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading snapshot: %w", err)
		}
		snap, err := source.DecodeSnapshot(data, format)
		if err != nil {
			return err
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		res, err := store.Import(cmd.Context(), snap)
		if err != nil {
			return err
		}
		newReporter(cmd.ErrOrStderr()).imported(res, cfg.Storage.DataDir)
		return nil
	},
}

func init() {
	importCmd.Flags().String("file", "", "snapshot file to import")
	importCmd.Flags().String("format", "", "snapshot format: json or yaml (default from the file extension)")
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server, data source, and catalog status",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep := newReporter(cmd.OutOrStdout())
		cfg, err := loadConfig()
		if err != nil {
			rep.fail("config error: %v", err)
			return nil
		}

		client := &http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
		if err != nil {
			rep.field("Server", "stopped")
		} else {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				rep.field("Server", "running on port %d", cfg.Server.Port)
			} else {
				rep.field("Server", "error (HTTP %d)", resp.StatusCode)
			}
		}

		rep.field("Source", "%s", describeSource(cfg))

		src, closeSrc, err := openSource(cmd.Context(), cfg)
		if err != nil {
			rep.field("Catalog", "unavailable (%v)", err)
			return nil
		}
		defer closeSrc()

		if store, ok := src.(*storage.Store); ok {
			if counts, err := store.Counts(cmd.Context()); err == nil {
				rep.stored(counts)
			}
		}

		ranker, err := newEngine(src, cfg).Load(cmd.Context())
		if err != nil {
			msg, cause := describe(err)
			rep.field("Catalog", "%s (%s)", msg, cause)
			return nil
		}
		rep.catalog(ranker.Stats())
		return nil
	},
}

func describeSource(cfg config.Config) string {
	switch cfg.Source.Driver {
	case config.DriverSQLite:
		return fmt.Sprintf("sqlite (%s)", cfg.Storage.DataDir)
	case config.DriverMongo:
		return fmt.Sprintf("mongo (database %s)", cfg.Source.MongoDatabase)
	case config.DriverFile:
		return fmt.Sprintf("file (%s)", cfg.Source.SnapshotPath)
	}
	return cfg.Source.Driver
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show each configuration value and where it comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := config.Show()
		if err != nil {
			return err
		}
		newReporter(cmd.OutOrStdout()).settings(list)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		newReporter(cmd.ErrOrStderr()).done("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a configuration value so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := config.UnsetKey(args[0])
		if err != nil {
			return err
		}
		rep := newReporter(cmd.ErrOrStderr())
		if !removed {
			rep.field(args[0], "not set in the config file")
			return nil
		}
		rep.done("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
