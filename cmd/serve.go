package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/webplayer/internal/server"
	"github.com/desertthunder/webplayer/internal/services"
	"github.com/desertthunder/webplayer/internal/sessions"
	"github.com/desertthunder/webplayer/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve starts the player web server and blocks until the context is
// cancelled or the listener fails.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	manager, err := sessions.NewManager(sessions.ManagerOpts{
		ClientID:     config.Credentials.Spotify.ClientID,
		ClientSecret: config.Credentials.Spotify.ClientSecret,
		RedirectURI:  config.Credentials.Spotify.RedirectURI,
		Logger:       r.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	spotify := services.NewSpotifyClient(services.SpotifyClientOpts{Logger: r.logger})

	app := server.NewApp(server.AppOpts{
		Config:  config,
		Manager: manager,
		Spotify: spotify,
		Logger:  r.logger,
	})

	srv := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	url := fmt.Sprintf("http://%s", config.Server.Addr())
	r.writePlain("%s\n", titleStyle.Render("webplayer"))
	r.writePlain("listening on %s\n", urlStyle.Render(url))
	r.printRoutes()

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down", "timeout", shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	r.logger.Info("server stopped")
	return nil
}

// Routes prints every route the application serves.
func (r *Runner) Routes(ctx context.Context, cmd *cli.Command) error {
	r.printRoutes()
	return nil
}

func (r *Runner) printRoutes() {
	for _, route := range server.AppRoutes() {
		r.writePlain("  %s\n", routeStyle.Render(route))
	}
}
