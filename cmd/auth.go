package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/ytmigrate/ytmigrate/internal/server"
	"github.com/ytmigrate/ytmigrate/internal/services"
	"github.com/ytmigrate/ytmigrate/internal/shared"
)

// AuthSource links the Google account playlists are read from.
func (r *Runner) AuthSource(ctx context.Context, cmd *cli.Command) error {
	return r.authAccount(ctx, accountSource)
}

// AuthDest links the Google account playlists are re-created on.
func (r *Runner) AuthDest(ctx context.Context, cmd *cli.Command) error {
	return r.authAccount(ctx, accountDest)
}

func (r *Runner) authAccount(ctx context.Context, account string) error {
	if r.config.Credentials.Google.ClientID == "" || r.config.Credentials.Google.ClientSecret == "" {
		return fmt.Errorf("%w: Google client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}

	oauthConfig, err := services.NewOAuthConfig(r.config.Credentials.Google)
	if err != nil {
		return err
	}

	token, err := r.doOAuth(oauthConfig, account)
	if err != nil {
		return err
	}

	path, err := r.tokenPath(account)
	if err != nil {
		return err
	}
	if err := services.SaveToken(path, token); err != nil {
		return err
	}

	r.writePlainln("✓ %s account linked", account)
	r.writePlain("✓ Tokens saved to %s\n", path)

	return nil
}

// AuthRevoke revokes and deletes the stored token for one account slot.
func (r *Runner) AuthRevoke(ctx context.Context, cmd *cli.Command) error {
	account := cmd.StringArg("account")
	if account != accountSource && account != accountDest {
		return fmt.Errorf("%w: account must be %q or %q", shared.ErrInvalidArgument, accountSource, accountDest)
	}

	path, err := r.tokenPath(account)
	if err != nil {
		return err
	}
	token, err := services.LoadToken(path)
	if err != nil {
		return err
	}

	if err := services.RevokeToken(ctx, r.httpClient, token); err != nil {
		r.logger.Warn("revocation request failed, deleting local token anyway", "error", err)
	}
	if err := services.DeleteToken(path); err != nil {
		return err
	}

	r.writePlain("✓ %s account unlinked\n", account)
	return nil
}

// doOAuth runs the authorization-code flow: starts the loopback server, opens
// the browser, and waits up to two minutes for the callback.
func (r *Runner) doOAuth(oauthConfig *oauth2.Config, account string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	authURL := services.AuthCodeURL(oauthConfig, state)
	oauthHandler := server.NewOAuthHandler(oauthConfig, state, account)
	router := server.NewLoopbackRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s account at %v", account, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser to link the %s account...\n", account)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, result.Error()
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
