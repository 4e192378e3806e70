package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/snakeladder-arena/internal/commentary"
)

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List providers and their models",
	Long: `Shows every supported provider with its models, and whether an API
key is configured for it. Use the ids with --p1/--p2 as provider/model.

Examples:
  ladder models
  ladder models anthropic`,
	Args: cobra.MaximumNArgs(1),
	Run:  runModels,
}

func runModels(cmd *cobra.Command, args []string) {
	catalog := commentary.Catalog()
	if len(args) == 1 {
		p, err := commentary.ParseProvider(args[0])
		if err != nil {
			exitf("%v", err)
		}
		info, _ := commentary.Lookup(p)
		catalog = []commentary.Info{info}
	}

	creds, _, err := openCredentials()
	if err != nil {
		exitf("%v", err)
	}

	out := cmd.OutOrStdout()
	for _, info := range catalog {
		status := "no key"
		if _, ok := creds.Get(info.ID); ok {
			status = "key configured"
		}
		fmt.Fprintf(out, "%s (%s) - %s\n", info.Name, info.ID, status)

		// Calculate column widths
		maxIDLen := 2
		for _, m := range info.Models {
			if len(m.ID) > maxIDLen {
				maxIDLen = len(m.ID)
			}
		}
		for _, m := range info.Models {
			marker := " "
			if m.ID == info.DefaultModel {
				marker = "*"
			}
			fmt.Fprintf(out, "  %s %-*s  %s\n", marker, maxIDLen, m.ID, m.Description)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, "* default model. Run 'ladder key set <provider>' to add a key.")
}
