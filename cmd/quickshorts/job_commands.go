package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"quickshorts/internal/config"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var flags jobFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Cut a short from a video, optionally with burned-in subtitles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			job := *cfg
			if err := flags.apply(cmd, &job); err != nil {
				return err
			}
			return ctx.runJob(cmd, &job)
		},
	}
	flags.register(cmd)
	return cmd
}

func newConfigureCommand(ctx *commandContext) *cobra.Command {
	var flags jobFlags
	var outputConfigPath string
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Save a job configuration file from flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(outputConfigPath)
			if target == "" {
				return errors.New("--output-config-path is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			job := *cfg
			if err := flags.apply(cmd, &job); err != nil {
				return err
			}
			if err := job.Save(target); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote configuration to %s\n", target)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&outputConfigPath, "output-config-path", "", "Where to write the configuration file")
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:         "run",
		Aliases:     []string{"run-from-file"},
		Short:       "Run the job described by a configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(configPath)
			if path == "" {
				path = flagValue(ctx.configFlag)
			}
			if path == "" {
				return errors.New("--config-path is required")
			}
			expanded, err := config.ExpandPath(path)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			if _, err := os.Stat(expanded); errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("config file %s not found", expanded)
			}
			cfg, _, err := ctx.loadConfig(expanded)
			if err != nil {
				return err
			}
			return ctx.runJob(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config-path", "", "Configuration file describing the job")
	return cmd
}
