package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deras16/ChatDb-vertexai/config"
)

var authKey string

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage AI provider API keys in the OS keychain",
	Long: `Store provider API keys in the OS keychain so they need not live in the
config file or the environment. Environment variables and the config file
still take precedence.

Providers: ` + strings.Join(config.SecretProviders, ", "),
}

var authSetCmd = &cobra.Command{
	Use:       "set <provider>",
	Short:     "Store an API key",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.SecretProviders,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := secretProvider(args[0])
		if err != nil {
			return err
		}
		key := strings.TrimSpace(authKey)
		if key == "" {
			key, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show(provider + " API key")
			if err != nil {
				return err
			}
			key = strings.TrimSpace(key)
		}
		if key == "" {
			return errors.New("no key given")
		}

		kc, err := config.OpenKeychain()
		if err != nil {
			return err
		}
		if err := kc.Set(provider, key); err != nil {
			return fmt.Errorf("store %s key: %w", provider, err)
		}
		pterm.Success.Printfln("Stored %s API key in the keychain", provider)
		return nil
	},
}

var authDeleteCmd = &cobra.Command{
	Use:       "delete <provider>",
	Short:     "Remove a stored API key",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.SecretProviders,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, err := secretProvider(args[0])
		if err != nil {
			return err
		}
		kc, err := config.OpenKeychain()
		if err != nil {
			return err
		}
		err = kc.Delete(provider)
		if errors.Is(err, config.ErrSecretNotFound) {
			pterm.Info.Printfln("No %s API key stored", provider)
			return nil
		}
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Removed %s API key", provider)
		return nil
	},
}

func secretProvider(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !config.IsSecretProvider(name) {
		return "", fmt.Errorf("unknown provider %q. Keys can be stored for: %s",
			name, strings.Join(config.SecretProviders, ", "))
	}
	return name, nil
}

func init() {
	authSetCmd.Flags().StringVar(&authKey, "key", "", "API key (prompted for when omitted)")
	authCmd.AddCommand(authSetCmd, authDeleteCmd)
	rootCmd.AddCommand(authCmd)
}
