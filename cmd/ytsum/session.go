package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/nkiryanov/ytsummarizer/internal/apperrors"
)

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := c.app.session
			out := cmd.OutOrStdout()

			_, hasRefresh := s.RefreshToken(ctx)
			expiresAt, hasExpiry := s.ExpiresAt(ctx)

			switch {
			case s.IsLoggedIn(ctx):
				_, _ = fmt.Fprintf(out, "Logged in, access token expires at %s\n", expiresAt.Local().Format(time.RFC3339))
			case hasRefresh && hasExpiry:
				_, _ = fmt.Fprintf(out, "Access token expired at %s, it is renewed on next request\n", expiresAt.Local().Format(time.RFC3339))
			case hasRefresh:
				_, _ = fmt.Fprintln(out, "Access token expired, it is renewed on next request")
			default:
				_, _ = fmt.Fprintln(out, "Not logged in")
			}
			return nil
		},
	}
}

func newRefreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the access token now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			err := c.app.session.RefreshErr(ctx)
			switch {
			case errors.Is(err, apperrors.ErrNoRefreshToken):
				return fmt.Errorf("%w, log in first", err)
			case err != nil:
				return fmt.Errorf("failed to refresh access token: %w", err)
			}

			expiresAt, _ := c.app.session.ExpiresAt(ctx)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Access token renewed, expires at %s\n", expiresAt.Local().Format(time.RFC3339))
			return nil
		},
	}
}

func newHandoffCmd(c *cli) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "handoff [URL]",
		Short: "Take the session over from a login redirect",
		Long: `Take over tokens a login page hands off in the query of a redirect URL
(access_token, refresh_token and expires_in parameters).

Either pass the URL the browser was redirected to, or run with --listen and point the
login redirect to http://<listen>/callback.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 1 && listen == "":
				return c.handoffURL(cmd, args[0])
			case len(args) == 0 && listen != "":
				return c.handoffListen(cmd, listen)
			default:
				return errors.New("pass either redirect URL or --listen address")
			}
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to wait for the login redirect on (e.g. localhost:8765)")

	return cmd
}

func (c *cli) handoffURL(cmd *cobra.Command, raw string) error {
	pageURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	cleaned, err := c.app.session.Init(cmd.Context(), pageURL)
	if err != nil {
		return err
	}
	c.app.session.StopRefreshTimer()

	if cleaned == pageURL {
		return errors.New("url carries no session tokens")
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
	return nil
}

func (c *cli) handoffListen(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	done := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("GET /callback", c.app.session.HandoffHandler(ctx, func(err error) {
		select {
		case done <- err:
		default:
		}
	}))

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = srv.Serve(ln)
	}()
	defer srv.Close() // nolint:errcheck

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Waiting for login redirect on http://%s/callback\n", ln.Addr())

	select {
	case err := <-done:
		c.app.session.StopRefreshTimer()
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
	return nil
}

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the session alive, renewing the access token before it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := c.app.session

			if s.IsTokenExpired(ctx) {
				if err := s.RefreshErr(ctx); err != nil {
					return fmt.Errorf("%w: %w", apperrors.ErrLoginRequired, err)
				}
			}
			s.StartRefreshTimer(ctx)
			defer s.StopRefreshTimer()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Watching session, press Ctrl+C to stop")
			<-ctx.Done()
			return nil
		},
	}
}
