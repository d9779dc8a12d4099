package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/daily-supplications/internal/catalog"
	"github.com/JakeFAU/daily-supplications/internal/store"
)

type progressView struct {
	Language    catalog.Language      `json:"language"`
	Completions store.CompletionState `json:"completions"`
	Morning     store.Progress        `json:"morning"`
	Evening     store.Progress        `json:"evening"`
	Items       []store.Item          `json:"items,omitempty"`
}

func newProgressCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect or change completion progress",
	}
	cmd.PersistentFlags().StringVar(&lang, "lang", "", "language partition (en, tr, ar); defaults to the active language")

	var listType string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show completion progress for a language",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a App, _ []string) error {
			l, err := resolveLanguage(a, lang)
			if err != nil {
				return err
			}
			var listed catalog.Type
			if listType != "" {
				if listed, err = catalog.ParseType(listType); err != nil {
					return err
				}
			}
			snap, err := a.Progress().Current(cmd.Context(), l)
			if err != nil {
				return err
			}
			view := progressView{Language: l, Completions: snap.Completions}
			for _, typ := range []catalog.Type{catalog.TypeMorning, catalog.TypeEvening} {
				items, err := store.ActiveList(a.Catalog(), snap, typ)
				if err != nil {
					return err
				}
				if typ == catalog.TypeMorning {
					view.Morning = store.Summarize(items, snap.Completions)
				} else {
					view.Evening = store.Summarize(items, snap.Completions)
				}
				if typ == listed {
					view.Items = items
				}
			}
			return printJSON(cmd, view)
		}),
	}
	show.Flags().StringVar(&listType, "list", "", "also print the active list (morning or evening)")

	complete := &cobra.Command{
		Use:   "complete <id>...",
		Short: "Mark one or more supplications completed",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a App, args []string) error {
			l, err := resolveLanguage(a, lang)
			if err != nil {
				return err
			}
			var completions store.CompletionState
			for _, id := range args {
				if completions, err = a.Progress().MarkCompleted(cmd.Context(), l, id); err != nil {
					return fmt.Errorf("complete %s: %w", id, err)
				}
			}
			return printJSON(cmd, map[string]any{"language": l, "completions": completions})
		}),
	}

	var scope string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear completions for morning, evening, or all",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a App, _ []string) error {
			l, err := resolveLanguage(a, lang)
			if err != nil {
				return err
			}
			sc, err := store.ParseScope(scope)
			if err != nil {
				return err
			}
			completions, err := a.Progress().ResetCompletions(cmd.Context(), l, sc)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]any{"language": l, "completions": completions})
		}),
	}
	reset.Flags().StringVar(&scope, "scope", string(store.ScopeAll), "morning, evening, or all")

	cmd.AddCommand(show, complete, reset)
	return cmd
}
