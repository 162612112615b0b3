package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jacoelho/dictionary/internal/config"
)

const appName = "dictc"

type rootFlags struct {
	configPath string
	cpuProfile string
	memProfile string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}
	var stopCPU func() error

	root := &cobra.Command{
		Use:           appName,
		Short:         "Compile and manage content models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.cpuProfile == "" {
				return nil
			}
			stop, err := startCPUProfile(flags.cpuProfile)
			if err != nil {
				return err
			}
			stopCPU = stop
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if stopCPU != nil {
				if err := stopCPU(); err != nil {
					return err
				}
			}
			if flags.memProfile != "" {
				return writeMemProfile(flags.memProfile)
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML configuration file (overrides environment)")
	pf.StringVar(&flags.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	pf.StringVar(&flags.memProfile, "memprofile", "", "write memory profile to file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log compilation details to stderr")

	root.AddCommand(
		newCompileCmd(flags),
		newInspectCmd(flags),
		newStoreCmd(flags),
	)
	return root
}

// loadConfig reads the environment and, when given, the --config file.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath)
	}
	return config.Load()
}

func (f *rootFlags) logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg != nil {
		level = cfg.SlogLevel()
	}
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
