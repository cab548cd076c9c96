package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/webplayer/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes a template config file for the user to fill in.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlain("Fill in credentials.spotify before running 'webplayer serve'\n")
	return nil
}

// ConfigShow prints the effective configuration with the secret redacted.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	secret := "(unset)"
	if config.Credentials.Spotify.ClientSecret != "" {
		secret = "••••••••"
	}

	r.writePlain("server.host       = %s\n", config.Server.Host)
	r.writePlain("server.port       = %d\n", config.Server.Port)
	r.writePlain("server.rate_limit = %.1f\n", config.Server.RateLimit)
	r.writePlain("server.rate_burst = %d\n", config.Server.RateBurst)
	r.writePlain("spotify.client_id     = %s\n", config.Credentials.Spotify.ClientID)
	r.writePlain("spotify.client_secret = %s\n", secret)
	r.writePlain("spotify.redirect_uri  = %s\n", config.Credentials.Spotify.RedirectURI)
	return nil
}
