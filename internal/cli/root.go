package cli

import (
	"os"

	"github.com/Domenick1991/tablebot/config"
	"github.com/spf13/cobra"
)

func NewRoot() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "tablebotctl",
		Short:         "Table booking assistant admin tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to config.yaml")

	load := func() (*config.Config, error) {
		return config.LoadConfig(configPath)
	}
	cmd.AddCommand(NewMigrateCmd(load))
	cmd.AddCommand(NewSeedCmd(load))
	cmd.AddCommand(NewChatCmd(load))
	cmd.AddCommand(NewScoreCmd())
	return cmd
}

type configLoader func() (*config.Config, error)
