package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"leadscout-engine/internal/secrets"
)

func newSecretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage API keys and the IMAP password in the OS keychain",
	}

	set := &cobra.Command{
		Use:       "set <exa|brave|imap>",
		Short:     "Store a secret read from stdin",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{secrets.NameExa, secrets.NameBrave, secrets.NameIMAP},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			value, err := readSecret(cmd)
			if err != nil {
				return err
			}
			if err := secrets.Set(a.config(), args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s as %s\n", args[0], secrets.Account(a.config(), args[0]))
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <exa|brave|imap>",
		Short: "Remove a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(false)
			if err != nil {
				return err
			}
			return secrets.Delete(a.config(), args[0])
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}

// readSecret takes the first line of stdin so the value never lands in
// shell history.
func readSecret(cmd *cobra.Command) (string, error) {
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		fmt.Fprint(cmd.ErrOrStderr(), "value: ")
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return "", errors.New("empty secret")
	}
	return line, nil
}
