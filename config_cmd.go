package main

import (
	"github.com/spf13/cobra"

	"github.com/tonimelisma/webstore-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	if cc.Flags.JSON {
		out := make(map[string]string, len(cc.Cfg.Settings()))
		for _, s := range cc.Cfg.Settings() {
			out[s.Key] = s.Value
		}

		out["config_file"] = cc.Cfg.ConfigPath

		return printJSON(cc.Stdout, out)
	}

	return config.RenderEffective(cc.Cfg, cc.Stdout)
}
