package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/nkiryanov/ytsummarizer/internal/validate"
)

// Answer of register and login endpoints
type tokensResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

type loginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerForm struct {
	Username        string `json:"username" validate:"required,max=80"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func newLoginCmd(c *cli) *cobra.Command {
	var form loginForm

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session tokens",
		Long: `Log in with username and password and store the session tokens.

Password is read from stdin when --password is not set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewScanner(cmd.InOrStdin())
			if form.Password == "" {
				form.Password = prompt(cmd.ErrOrStderr(), in, "Password: ")
			}
			if err := checkForm(form); err != nil {
				return err
			}

			var resp tokensResponse
			if err := c.app.postJSON(cmd.Context(), "/api/auth/login", form, &resp); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := c.storeTokens(cmd, resp); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", resp.User.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Password")

	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var form registerForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Long: `Create an account and store the session tokens.

Password and its confirmation are read from stdin when not set with flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewScanner(cmd.InOrStdin())
			if form.Password == "" {
				form.Password = prompt(cmd.ErrOrStderr(), in, "Password: ")
			}
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = prompt(cmd.ErrOrStderr(), in, "Confirm password: ")
			}

			if err := validate.PasswordConfirmation(form.Password, form.ConfirmPassword); err != nil {
				return err
			}
			if err := checkForm(form); err != nil {
				return err
			}

			payload := map[string]string{
				"username": form.Username,
				"email":    form.Email,
				"password": form.Password,
			}

			var resp tokensResponse
			if err := c.app.postJSON(cmd.Context(), "/api/auth/register", payload, &resp); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			if err := c.storeTokens(cmd, resp); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", resp.User.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "Email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "Password once again")

	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s := c.app.session

			// Local session is cleared even if server is not reachable
			if refresh, ok := s.RefreshToken(ctx); ok {
				payload := map[string]string{"refresh_token": refresh}
				if err := c.app.postJSON(ctx, "/api/auth/logout", payload, nil); err != nil {
					c.app.logger.Warn("Failed to revoke refresh token", "error", err)
				}
			}

			if err := s.ClearTokens(ctx); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) storeTokens(cmd *cobra.Command, resp tokensResponse) error {
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return errors.New("server did not return tokens")
	}

	expiresIn := time.Duration(resp.ExpiresIn) * time.Second
	if err := c.app.session.SetTokens(cmd.Context(), resp.AccessToken, resp.RefreshToken, expiresIn); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Read one line from in. Empty string when input is over.
func prompt(out io.Writer, in *bufio.Scanner, label string) string {
	_, _ = fmt.Fprint(out, label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimRight(in.Text(), "\r")
}

// Validate form, reporting invalid fields by their flag names
func checkForm(form any) error {
	err := validate.Struct(form)

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}

	problems := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		flag := strings.ReplaceAll(fe.Field(), "_", "-")
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("--%s is required", flag))
		case "eqfield":
			problems = append(problems, fmt.Sprintf("--%s must match --%s", flag, strings.ToLower(fe.Param())))
		default:
			problems = append(problems, fmt.Sprintf("--%s is invalid (%s)", flag, fe.Tag()))
		}
	}
	return errors.New(strings.Join(problems, "; "))
}
