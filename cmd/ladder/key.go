package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/snakeladder-arena/internal/commentary"
	"github.com/vovakirdan/snakeladder-arena/internal/engine"
)

var flagCheckModel string

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage provider API keys",
	Long: `Store API keys in ~/.snakeladder/credentials.yaml (readable by you
only). Keys in OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY,
OPENROUTER_API_KEY, GROQ_API_KEY and XAI_API_KEY take precedence over
the file. Keys are never printed.

Examples:
  ladder key set openai          # prompts for the key
  echo "$KEY" | ladder key set groq
  ladder key list
  ladder key check anthropic
  ladder key delete gemini`,
}

var keySetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Store a key, read from the terminal or stdin",
	Args:  cobra.ExactArgs(1),
	Run:   runKeySet,
}

var keyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show which providers have a key",
	Args:  cobra.NoArgs,
	Run:   runKeyList,
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove a stored key",
	Args:  cobra.ExactArgs(1),
	Run:   runKeyDelete,
}

var keyCheckCmd = &cobra.Command{
	Use:   "check <provider>",
	Short: "Make a minimal request to check a key",
	Args:  cobra.ExactArgs(1),
	Run:   runKeyCheck,
}

func init() {
	keyCheckCmd.Flags().StringVar(&flagCheckModel, "model", "", "Model to check with (default: provider default)")

	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyListCmd)
	keyCmd.AddCommand(keyDeleteCmd)
	keyCmd.AddCommand(keyCheckCmd)
}

func mustProvider(s string) commentary.Provider {
	p, err := commentary.ParseProvider(s)
	if err != nil {
		exitf("%v", err)
	}
	return p
}

// readKey reads a key without echo from a terminal, or one line of stdin.
func readKey(p commentary.Provider) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(os.Stderr, "API key for %s: ", p)
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(string(data)), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runKeySet(cmd *cobra.Command, args []string) {
	p := mustProvider(args[0])
	_, file, err := openCredentials()
	if err != nil {
		exitf("%v", err)
	}

	key, err := readKey(p)
	if err != nil {
		exitf("cannot read key: %v", err)
	}
	if key == "" {
		exitf("empty key, nothing stored (use 'ladder key delete %s' to remove one)", p)
	}
	if err := file.Set(p, key); err != nil {
		exitf("%v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored key for %s in %s\n", p, file.Path())
}

func runKeyList(cmd *cobra.Command, _ []string) {
	creds, file, err := openCredentials()
	if err != nil {
		exitf("%v", err)
	}

	out := cmd.OutOrStdout()
	for _, info := range commentary.Catalog() {
		active, ok := creds.Get(info.ID)
		stored, inFile := file.Get(info.ID)
		source := "-"
		switch {
		case !ok:
		case !inFile:
			source = "environment"
		case active != stored:
			source = "environment (overrides file)"
		default:
			source = "file"
		}
		fmt.Fprintf(out, "  %-11s %s\n", info.ID, source)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Key file: %s\n", file.Path())
}

func runKeyDelete(cmd *cobra.Command, args []string) {
	p := mustProvider(args[0])
	_, file, err := openCredentials()
	if err != nil {
		exitf("%v", err)
	}
	if _, ok := file.Get(p); !ok {
		exitf("no stored key for %s", p)
	}
	if err := file.Set(p, ""); err != nil {
		exitf("%v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed key for %s\n", p)
}

func runKeyCheck(cmd *cobra.Command, args []string) {
	p := mustProvider(args[0])
	cfg := mustConfig(nil)
	creds, _, err := openCredentials()
	if err != nil {
		exitf("%v", err)
	}
	key, ok := creds.Get(p)
	if !ok {
		exitf("no key for %s", p)
	}

	model := flagCheckModel
	if model == "" {
		info, _ := commentary.Lookup(p)
		model = info.DefaultModel
	}

	requester := commentary.NewRequester(newLogger(cfg, "ladder"), cfg.RequestTimeout, commentary.Options{})
	player := engine.Player{Provider: string(p), Model: model, Credential: key}
	if !requester.Validate(context.Background(), player) {
		exitf("%s rejected the key or is unreachable (model %s)", p, model)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Key for %s works with %s\n", p, model)
}
