package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/store"
)

func newCustomCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Manage custom supplications",
	}
	cmd.PersistentFlags().StringVar(&lang, "lang", "", "language partition (en, tr, ar); defaults to the active language")

	var in store.NewCustom
	var typ string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a custom supplication",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a App, _ []string) error {
			l, err := resolveLanguage(a, lang)
			if err != nil {
				return err
			}
			if in.Type, err = catalog.ParseType(typ); err != nil {
				return err
			}
			created, err := a.Progress().AddCustom(cmd.Context(), l, in)
			if err != nil {
				return err
			}
			return printJSON(cmd, created)
		}),
	}
	add.Flags().StringVar(&in.PrimaryText, "arabic", "", "Arabic text")
	add.Flags().StringVar(&in.TranslatedText, "translation", "", "translated text")
	add.Flags().IntVar(&in.RepeatCount, "count", 1, "times to repeat (1-100)")
	add.Flags().StringVar(&typ, "type", string(catalog.TypeMorning), "morning or evening")

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a custom supplication and its completion",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a App, args []string) error {
			l, err := resolveLanguage(a, lang)
			if err != nil {
				return err
			}
			if err := a.Progress().RemoveCustom(cmd.Context(), l, args[0]); err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"language": l, "removed": args[0]})
		}),
	}

	cmd.AddCommand(add, remove)
	return cmd
}
