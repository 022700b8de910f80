package main

import (
	"os"

	"github.com/ivlev/voicescene/internal/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// commandContext carries state shared by subcommands after the root
// pre-run has loaded it.
type commandContext struct {
	configPath string
	verbose    bool

	cfg *config.Config
	log *logrus.Logger
}

func (c *commandContext) load() error {
	// A missing .env is fine; the key may come from the real environment.
	_ = godotenv.Load()

	c.log = newLogger(c.verbose)
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	cfg.BuildVersion = BuildVersion
	c.cfg = cfg
	return nil
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "voicescene",
		Short:         "Render narrated animated scenes to video",
		Version:       BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path (default "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newScenesCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))

	return rootCmd
}
