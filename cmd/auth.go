package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/setlist/internal/server"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
)

const authTimeout = 2 * time.Minute

// AuthYouTube performs the OAuth2 authorization flow for the YouTube Data API.
//
// Starts a local HTTP server on the redirect URI, opens the browser for consent, and saves the exchanged token.
func (r *Runner) AuthYouTube(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.YouTube
	oauthConfig, err := services.OAuthConfig(creds)
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, oauthConfig)
	if err != nil {
		return err
	}

	if err := services.SaveToken(creds.TokenPath, token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", shared.ExpandHome(creds.TokenPath))
	r.writePlain("You can now use: setlist playlist build --url <page>\n")
	return nil
}

// doOAuth serves the callback at the redirect URI until the consent page redirects back, then returns the token.
func (r *Runner) doOAuth(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	redirect, err := url.Parse(config.RedirectURL)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: bad redirect_uri %q", shared.ErrInvalidConfig, config.RedirectURL)
	}

	authURL := services.AuthURL(config, state)
	oauthHandler := server.NewOAuthHandler(config, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:              redirect.Host,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", redirect.Host)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for YouTube authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// AuthStatus reports whether a YouTube token is saved and, when it is, whether it is still valid.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.YouTube
	path := shared.ExpandHome(creds.TokenPath)

	token, err := services.LoadToken(creds.TokenPath)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		r.writePlain("YouTube: ✗ Not authenticated\n")
		r.writePlain("Run 'setlist auth youtube' to authorize.\n")
		return nil
	} else if err != nil {
		return err
	}

	r.writePlain("YouTube: ✓ Token saved at %s\n", path)
	switch {
	case token.Valid():
		r.writePlain("Access token expires: %s\n", token.Expiry.Local().Format(time.DateTime))
	case token.RefreshToken != "":
		r.writePlain("Access token expired; it will be refreshed on next use.\n")
	default:
		r.writePlain("Access token expired and no refresh token was saved. Run 'setlist auth youtube' again.\n")
	}
	return nil
}
