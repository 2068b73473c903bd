package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repoexplorer/internal/config"
	"repoexplorer/internal/logging"
)

var (
	configPath string
	addrFlag   string
	dbFlag     string
	forceInit  bool

	rootCmd = &cobra.Command{
		Use:   "explorer",
		Short: "Browse and edit a hierarchical content repository over HTTP",
		Long: `explorer serves a REST API for navigating a content tree, searching it
with full-text, structural and relational queries, and editing nodes,
mixins and properties.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the explorer HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	registerTypesCmd = &cobra.Command{
		Use:   "register-types <file...>",
		Short: "Register node type definitions from YAML files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRegisterTypes,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the explorer configuration",
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: search standard locations)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite database path (overrides config)")

	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "HTTP listen address (overrides config)")
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(serveCmd, registerTypesCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config or found in the standard
// locations, applies flag overrides and initialises logging
func loadConfig() (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if addrFlag != "" {
		cfg.Server.Addr = addrFlag
	}
	if dbFlag != "" {
		cfg.Database.Path = dbFlag
	}

	if err := logging.Init(cfg.LoggerConfig()); err != nil {
		return nil, fmt.Errorf("failed to initialise logging: %w", err)
	}
	if path != "" {
		logging.L().Info("config loaded", logging.Path(path))
	} else {
		logging.L().Info("no config file found, using defaults")
	}
	return cfg, nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n%s\n", path, cfg.Summary())
	return nil
}
