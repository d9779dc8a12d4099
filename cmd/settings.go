package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change preferences",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored preferences",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a App, _ []string) error {
			return printJSON(cmd, a.Settings().Current())
		}),
	}

	setLanguage := &cobra.Command{
		Use:   "set-language <en|tr|ar>",
		Short: "Change the active language",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a App, args []string) error {
			lang, err := catalog.ParseLanguage(args[0])
			if err != nil {
				return err
			}
			if err := a.Settings().SetLanguage(cmd.Context(), lang); err != nil {
				return err
			}
			return printJSON(cmd, a.Settings().Current())
		}),
	}

	cmd.AddCommand(show, setLanguage)
	return cmd
}
