package main

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Command line state shared by all commands
type cli struct {
	getenv func(string) string
	fs     afero.Fs

	configPath string
	flags      Config

	app *app
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ytsum",
		Short: "YouTube summarizer command line client",
		Long: `Command line client of the YouTube summarizer.

Keeps the login session (access and refresh tokens) between runs and renews the
access token when it expires.

Options are read from the config file, then from YTSUM_* environment variables,
then from flags; the latter wins.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", DefaultConfigPath(), "Config file")
	flags.StringVar(&c.flags.Server, "server", "", "Summarizer API base URL")
	flags.StringVar(&c.flags.Storage, "storage", "", "Session storage: memory, file, redis")
	flags.StringVar(&c.flags.StoragePath, "storage-path", "", "Session file for file storage")
	flags.StringVar(&c.flags.RedisAddr, "redis-addr", "", "Redis address for redis storage")
	flags.StringVar(&c.flags.Profile, "profile", "", "Session profile")
	flags.StringVar(&c.flags.LogLevel, "log-level", "", "Logging level (debug, info, warn, error)")
	flags.StringVar(&c.flags.LogFile, "log-file", "", "Log file, '-' for stderr")

	rootCmd.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newStatusCmd(c),
		newRefreshCmd(c),
		newHandoffCmd(c),
		newWatchCmd(c),
		newRequestCmd(c),
		newProfileCmd(c),
		newSummarizeCmd(c),
		newThemeCmd(c),
	)

	return rootCmd
}

// Load config and build app. Flags override the config file and env.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg := NewConfig()
	if err := cfg.LoadFile(c.fs, c.configPath); err != nil {
		return err
	}
	cfg.LoadEnv(c.getenv)

	flags := cmd.Flags()
	override := func(name string, o *string, value string) {
		if flags.Changed(name) {
			*o = value
		}
	}
	override("server", &cfg.Server, c.flags.Server)
	override("storage", &cfg.Storage, c.flags.Storage)
	override("storage-path", &cfg.StoragePath, c.flags.StoragePath)
	override("redis-addr", &cfg.RedisAddr, c.flags.RedisAddr)
	override("profile", &cfg.Profile, c.flags.Profile)
	override("log-level", &cfg.LogLevel, c.flags.LogLevel)
	override("log-file", &cfg.LogFile, c.flags.LogFile)

	app, err := newApp(cmd.Context(), cfg, c.fs, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

// Run ytsum with args until done or ctx cancelled
func run(ctx context.Context, c *cli, args []string, configure ...func(*cobra.Command)) error {
	defer c.close()

	rootCmd := newRootCmd(c)
	for _, fn := range configure {
		fn(rootCmd)
	}
	rootCmd.SetArgs(args)

	return rootCmd.ExecuteContext(ctx)
}
