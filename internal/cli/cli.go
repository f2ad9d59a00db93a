package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/happyhackingspace/wordseg/internal/banner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	configFile  string
	initialized bool
	cfg         *viper.Viper
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version, cfg: viper.New()}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "wordseg",
		Short:         "Word segmentation for scripts written without spaces",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := c.rootCmd.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	flags.BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging and banner")
	flags.StringVar(&c.configFile, "config", "", "Config file (yaml, toml or json)")
	flags.String("model", "", "Model weights file or model name in the data folder (default: auto-detect or download)")
	flags.String("data-folder", "data", "Folder holding <model>/weights.json and test fixtures")
	_ = c.cfg.BindPFlag("model", flags.Lookup("model"))
	_ = c.cfg.BindPFlag("data-folder", flags.Lookup("data-folder"))

	c.cfg.SetEnvPrefix("WORDSEG")
	c.cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.cfg.AutomaticEnv()

	defaultHelp := c.rootCmd.HelpFunc()
	c.rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		_ = c.initApp()
		defaultHelp(cmd, args)
	})

	c.rootCmd.AddCommand(c.newSegmentCommand())
	c.rootCmd.AddCommand(c.newEvaluateCommand())
	c.rootCmd.AddCommand(c.newInfoCommand())
	c.rootCmd.AddCommand(c.newModelsCommand())
	c.rootCmd.AddCommand(c.newLocaleCommand())
	c.rootCmd.AddCommand(c.newUpCommand())
	c.rootCmd.AddCommand(c.newDataCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

// initApp initializes logging, reads the config file and prints the banner.
func (c *CLI) initApp() error {
	if c.initialized {
		return nil
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	if c.configFile != "" {
		c.cfg.SetConfigFile(c.configFile)
		if err := c.cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		slog.Debug("Config loaded", "file", c.cfg.ConfigFileUsed())
	}

	if !c.silent {
		fmt.Fprint(os.Stderr, banner.Banner(c.version))
	}
	return nil
}
