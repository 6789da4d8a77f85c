package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlekbai/hfsm/definition"
	"github.com/atlekbai/hfsm/internal/config"
	"github.com/atlekbai/hfsm/internal/logging"
)

var v = config.New()

var rootCmd = &cobra.Command{
	Use:           "hfsm",
	Short:         "hfsm runs hierarchical state machines described in YAML or JSON",
	Long:          `hfsm loads a declarative machine definition and renders it, fires trigger scripts against it or serves instances of it over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("definition", "", "Path to the machine definition")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	_ = v.BindPFlag("definition", rootCmd.PersistentFlags().Lookup("definition"))
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// env is what every subcommand needs: configuration, a logger and the definition.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	def    *definition.Definition
}

// loadEnv resolves configuration, logger and definition. The first positional
// argument is taken as the definition path unless --definition was given, or
// unless config or environment already name a definition and the argument has
// no definition file extension. The unused arguments are returned.
func loadEnv(cmd *cobra.Command, args []string) (*env, []string, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, configPath)
	if err != nil {
		return nil, nil, err
	}

	rest := args
	if len(args) > 0 && !cmd.Flags().Changed("definition") {
		if _, isFile := definition.FormatOf(args[0]); isFile || cfg.Definition == "" {
			cfg.Definition, rest = args[0], args[1:]
		}
	}
	if cfg.Definition == "" {
		return nil, nil, errors.New("no definition given: pass a path or set --definition")
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	def, err := definition.Load(cfg.Definition)
	if err != nil {
		return nil, nil, err
	}
	return &env{cfg: cfg, logger: logger, def: def}, rest, nil
}
