package cmd

import (
	"math/rand/v2"

	"github.com/spf13/cobra"
)

func newAdviceCmd() *cobra.Command {
	var (
		lang string
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "advice",
		Short: "Print a random piece of advice",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a App, _ []string) error {
			l, err := resolveLanguage(a, lang)
			if err != nil {
				return err
			}
			if all {
				return printJSON(cmd, a.Advice().List(l))
			}
			if lang == "" {
				return printJSON(cmd, a.Rotator().Current())
			}
			list := a.Advice().List(l)
			if len(list) == 0 {
				return printJSON(cmd, nil)
			}
			return printJSON(cmd, list[rand.IntN(len(list))])
		}),
	}
	cmd.Flags().StringVar(&lang, "lang", "", "language (en, tr, ar); defaults to the active language")
	cmd.Flags().BoolVar(&all, "all", false, "print the full list")
	return cmd
}
