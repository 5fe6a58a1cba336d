package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newThemeCmd(c *cli) *cobra.Command {
	themeCmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the interface theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dark, err := c.app.theme.DarkMode(cmd.Context())
			if err != nil {
				return err
			}
			return printTheme(cmd, dark)
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle",
		Short: "Switch between dark and light theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dark, err := c.app.theme.ToggleDarkMode(cmd.Context())
			if err != nil {
				return err
			}
			return printTheme(cmd, dark)
		},
	}

	setCmd := &cobra.Command{
		Use:       "set dark|light",
		Short:     "Set the theme",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dark := args[0] == "dark"
			if err := c.app.theme.SetDarkMode(cmd.Context(), dark); err != nil {
				return err
			}
			return printTheme(cmd, dark)
		},
	}

	themeCmd.AddCommand(toggleCmd, setCmd)
	return themeCmd
}

func printTheme(cmd *cobra.Command, dark bool) error {
	theme := "light"
	if dark {
		theme = "dark"
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", theme)
	return err
}
