package commands

import (
	"errors"
	"fmt"

	"github.com/dittokv/pagestore/internal/bytesize"
	"github.com/dittokv/pagestore/internal/cliprompt"
	"github.com/dittokv/pagestore/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample pagestore configuration file interactively.

By default, the configuration file is created at
$XDG_CONFIG_HOME/pagestore/config.yaml. Use --config to specify a custom
path.

Examples:
  # Initialize with default location
  pagestore init

  # Initialize with custom path
  pagestore init --config /etc/pagestore/config.yaml

  # Force overwrite an existing config
  pagestore init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if !initForce && config.FileExists(path) {
		overwrite, err := cliprompt.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), false)
		if err != nil {
			if errors.Is(err, cliprompt.ErrAborted) {
				return nil
			}
			return err
		}
		if !overwrite {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	pagePath, err := cliprompt.Input("Page file path", cfg.Page.Path)
	if err != nil {
		return abortOrErr(err)
	}
	cfg.Page.Path = pagePath

	capacityStr, err := cliprompt.Input("Page capacity (e.g. 4Mi, 512Ki)", cfg.Page.Capacity.String())
	if err != nil {
		return abortOrErr(err)
	}
	capacity, err := bytesize.ParseByteSize(capacityStr)
	if err != nil {
		return fmt.Errorf("invalid capacity: %w", err)
	}
	cfg.Page.Capacity = capacity

	logLevel, err := cliprompt.Input("Log level (DEBUG/INFO/WARN/ERROR)", cfg.Logging.Level)
	if err != nil {
		return abortOrErr(err)
	}
	cfg.Logging.Level = logLevel

	metricsEnabled, err := cliprompt.Confirm("Enable Prometheus metrics?", cfg.Metrics.Enabled)
	if err != nil {
		return abortOrErr(err)
	}
	cfg.Metrics.Enabled = metricsEnabled

	port, err := cliprompt.InputInt("HTTP API listen port", cfg.Metrics.ListenPort)
	if err != nil {
		return abortOrErr(err)
	}
	cfg.Metrics.ListenPort = port

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration written to: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Review the configuration file")
	fmt.Printf("  2. Start the server with: pagestore serve --config %s\n", path)
	return nil
}

func abortOrErr(err error) error {
	if errors.Is(err, cliprompt.ErrAborted) {
		fmt.Println("Aborted.")
		return nil
	}
	return err
}
