package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nkiryanov/ytsummarizer/internal/session"
	"github.com/nkiryanov/ytsummarizer/internal/validate"
)

func newRequestCmd(c *cli) *cobra.Command {
	var (
		method  string
		data    string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "request PATH",
		Short: "Make an authenticated API request and print the JSON answer",
		Example: `  ytsum request /api/user/profile
  ytsum request -X POST -d '{"youtube_url":"https://youtu.be/xyz"}' /api/transcript`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := session.RequestOptions{
				Method: strings.ToUpper(method),
				Header: http.Header{},
			}
			if data != "" {
				opts.Body = []byte(data)
			}
			for _, h := range headers {
				name, value, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("invalid header %q, use 'Name: value'", h)
				}
				opts.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
			}

			return c.request(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra header 'Name: value', may be repeated")

	return cmd
}

func newProfileCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show profile of the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				User struct {
					Username  string `json:"username"`
					Email     string `json:"email"`
					CreatedAt string `json:"created_at"`
				} `json:"user"`
			}

			err := c.app.session.APIRequest(cmd.Context(), "/api/user/profile", session.RequestOptions{}, &resp)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Username: %s\n", resp.User.Username)
			_, _ = fmt.Fprintf(out, "Email:    %s\n", resp.User.Email)
			_, _ = fmt.Fprintf(out, "Joined:   %s\n", resp.User.CreatedAt)
			return nil
		},
	}
}

func newSummarizeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize URL",
		Short: "Request transcript and summary of a YouTube video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link := strings.TrimSpace(args[0])
			if err := validate.YouTubeURL(link); err != nil {
				return err
			}

			body, err := json.Marshal(map[string]string{"youtube_url": link})
			if err != nil {
				return err
			}

			return c.request(cmd, "/api/transcript", session.RequestOptions{
				Method: http.MethodPost,
				Body:   body,
			})
		},
	}
}

// Make API request and print indented JSON answer
func (c *cli) request(cmd *cobra.Command, path string, opts session.RequestOptions) error {
	var answer json.RawMessage

	err := c.app.session.APIRequest(cmd.Context(), path, opts, &answer)

	var respErr *session.ResponseError
	if errors.As(err, &respErr) {
		var apiErr apiError
		if json.Unmarshal(respErr.Body, &apiErr) == nil && apiErr.String() != "" {
			return fmt.Errorf("request failed with status %d: %s", respErr.StatusCode, apiErr.String())
		}
		return err
	}
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), answer)
}

func printJSON(out io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}

	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(pretty))
	return err
}
