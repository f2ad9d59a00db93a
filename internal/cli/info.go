package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/happyhackingspace/wordseg/internal/storage"
	"github.com/happyhackingspace/wordseg/provider"
	"github.com/spf13/cobra"
)

func (c *CLI) newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the active model's name and dimensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadSegmenter()
			if err != nil {
				return err
			}
			info, err := s.Info()
			if err != nil {
				return err
			}
			output, _ := json.MarshalIndent(info, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}
}

func (c *CLI) newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models in the data folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.NewStorage(c.cfg.GetString("data-folder"))
			names, err := store.ListModels()
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			if len(names) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No models in %s.\n", store.Folder)
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (c *CLI) newLocaleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "locale",
		Short: "Print the built-in locale-invariant data records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printInvariants(cmd.OutOrStdout())
		},
	}
}

// printInvariants writes one "key<TAB>json" line per registered record.
func printInvariants(w io.Writer) error {
	for _, key := range provider.Keys() {
		v, _ := provider.Invariant(key)
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		fmt.Fprintf(w, "%s\t%s\n", key, data)
	}
	return nil
}
