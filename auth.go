package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/webstore-go/internal/credfile"
	"github.com/tonimelisma/webstore-go/internal/store"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify and save OAuth client credentials and a refresh token",
		Long: `Verify OAuth credentials with one token refresh and save them to the
credentials file. Values not given as flags are taken from the
WEBSTORE_GO_CLIENT_ID, WEBSTORE_GO_CLIENT_SECRET and WEBSTORE_GO_REFRESH_TOKEN
environment variables. The publisher ID comes from --publisher.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}

	cmd.Flags().String("client-id", "", "OAuth client ID")
	cmd.Flags().String("client-secret", "", "OAuth client secret")
	cmd.Flags().String("refresh-token", "", "OAuth refresh token")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove saved credentials",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

// loginOutput is the JSON schema for `login --json`.
type loginOutput struct {
	PublisherID     string `json:"publisher_id"`
	CredentialsFile string `json:"credentials_file"`
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := cmd.Context()

	creds := store.Credentials{
		ClientID:     flagOrEnv(cmd, "client-id", cc.Env.ClientID),
		ClientSecret: flagOrEnv(cmd, "client-secret", cc.Env.ClientSecret),
		RefreshToken: flagOrEnv(cmd, "refresh-token", cc.Env.RefreshToken),
		PublisherID:  cc.Cfg.PublisherID,
	}

	if err := creds.Validate(); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	cc.Logger.Info("login started", "credentials", creds)

	tokens := store.NewTokenProvider(creds, cc.Cfg.TokenURL, newHTTPClient(cc.Cfg), cc.Logger)
	if _, err := tokens.Token(ctx); err != nil {
		return fmt.Errorf("login: verifying credentials: %w", err)
	}

	if err := credfile.Save(cc.Cfg.CredentialsFile, creds); err != nil {
		return err
	}

	cc.Logger.Info("login successful", "credentials_file", cc.Cfg.CredentialsFile)

	if cc.Flags.JSON {
		return printJSON(cc.Stdout, loginOutput{
			PublisherID:     creds.PublisherID,
			CredentialsFile: cc.Cfg.CredentialsFile,
		})
	}

	cc.Statusf("Login successful. Credentials saved to %s\n", cc.Cfg.CredentialsFile)

	return nil
}

// flagOrEnv returns the flag value when set, otherwise the env fallback.
func flagOrEnv(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, err := cmd.Flags().GetString(name)
		if err == nil {
			return v
		}
	}

	return fallback
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	existed, err := credfile.Remove(cc.Cfg.CredentialsFile)
	if err != nil {
		return err
	}

	cc.Logger.Info("logout", "credentials_file", cc.Cfg.CredentialsFile, "existed", existed)

	if existed {
		cc.Statusf("Logged out.\n")
	} else {
		cc.Statusf("No saved credentials.\n")
	}

	return nil
}
