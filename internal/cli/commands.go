package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/skillsync"
	"github.com/MrEthical07/skillsync/access"
	"github.com/MrEthical07/skillsync/identity"
	"github.com/MrEthical07/skillsync/session"
)

func (a *app) loginCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <identifier>",
		Short: "Sign in with a username or email",
		Long: `Sign in and store the returned credentials.

The password is read from --password or SKILLSYNC_PASSWORD.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = a.settings.Password
			}
			if password == "" {
				return errors.New("password required: use --password or SKILLSYNC_PASSWORD")
			}

			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			data, err := c.Login(cmd.Context(), args[0], password)
			if err != nil {
				return a.fail("login", err)
			}
			a.printer.Success("signed in as %s (%s)", data.User.Identifier(), data.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Logout(cmd.Context()); err != nil {
				return a.fail("logout", err)
			}
			a.printer.Success("signed out")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			snap := c.Snapshot()
			if !snap.Authenticated() {
				a.printer.Info("not signed in")
				return nil
			}
			return a.printer.table([]string{"field", "value"}, identityRows(snap))
		},
	}
}

func identityRows(snap session.Snapshot) [][]string {
	u := snap.User
	rows := [][]string{
		{"id", strconv.FormatInt(u.ID, 10)},
		{"username", u.Username},
		{"email", u.Email},
		{"role", string(u.Role)},
	}
	switch p := snap.Profile.(type) {
	case *identity.ClientProfile:
		rows = append(rows,
			[]string{"name", p.Name},
			[]string{"company", p.CompanyName},
		)
	case *identity.FreelancerProfile:
		rows = append(rows,
			[]string{"name", p.Name},
			[]string{"skills", strings.Join(p.Skills, ", ")},
			[]string{"experience", p.ExperienceLevel},
			[]string{"hourly rate", string(p.HourlyRate)},
			[]string{"portfolio", strings.Join(p.PortfolioLinks, ", ")},
		)
	}
	return rows
}

func (a *app) registerCommand() *cobra.Command {
	var (
		req      skillsync.RegisterRequest
		role     string
		skills   string
		links    string
		password string
		confirm  string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a client or freelancer account",
		Long: `Create an account. Sign in afterwards with "skillsync login".

Examples:
  skillsync register --email ada@acme.test --role client --name Ada --company Acme -p ...
  skillsync register --email fran@example.com --role freelancer --skills go,sql --rate 45 -p ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := identity.ParseRole(role)
			if err != nil {
				return err
			}
			if password == "" {
				password = a.settings.Password
			}
			if confirm == "" {
				confirm = password
			}
			req.Role = r
			req.Password = password
			req.ConfirmPassword = confirm
			req.Skills = splitList(skills)
			req.PortfolioLinks = splitList(links)

			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.Register(cmd.Context(), req); err != nil {
				return a.fail("register", err)
			}
			a.printer.Success("account created for %s; run skillsync login to sign in", req.Email)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Username, "username", "", "username (defaults to the email's local part)")
	f.StringVarP(&password, "password", "p", "", "password")
	f.StringVar(&confirm, "confirm-password", "", "password confirmation (defaults to --password)")
	f.StringVar(&role, "role", "", "client or freelancer")
	f.StringVar(&req.Name, "name", "", "display name")
	f.StringVar(&req.CompanyName, "company", "", "company name (client)")
	f.StringVar(&skills, "skills", "", "comma-separated skills (freelancer)")
	f.StringVar(&req.ExperienceLevel, "experience", "", "experience level (freelancer)")
	f.StringVar(&req.HourlyRate, "rate", "", "hourly rate (freelancer)")
	f.StringVar(&req.Bio, "bio", "", "short bio (freelancer)")
	f.StringVar(&links, "portfolio", "", "comma-separated portfolio links (freelancer)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (a *app) profileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the signed-in account's profile",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set key=value...",
		Short: "Update profile fields",
		Long: `Update fields of the signed-in account. Keys prefixed with "user." change the
account record; other keys change the profile. skills and portfolio_links take
comma-separated lists.

Example:
  skillsync profile set name=Fran hourly_rate=50 skills=go,sql user.username=fran`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := parseProfileUpdate(args)
			if err != nil {
				return err
			}

			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			data, err := c.SaveProfile(cmd.Context(), update)
			if err != nil {
				return a.fail("profile", err)
			}
			a.printer.Success("profile saved")
			return a.printer.table([]string{"field", "value"}, identityRows(session.Snapshot{
				State:   session.Authenticated,
				User:    data.User,
				Profile: data.Profile,
			}))
		},
	})
	return cmd
}

var listFields = map[string]bool{"skills": true, "portfolio_links": true}

func parseProfileUpdate(args []string) (skillsync.ProfileUpdate, error) {
	var update skillsync.ProfileUpdate
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return update, fmt.Errorf("invalid field %q: want key=value", arg)
		}

		if userKey, isUser := strings.CutPrefix(key, "user."); isUser {
			if update.User == nil {
				update.User = make(map[string]any)
			}
			update.User[userKey] = value
			continue
		}
		if update.Profile == nil {
			update.Profile = make(map[string]any)
		}
		if listFields[key] {
			update.Profile[key] = splitList(value)
		} else {
			update.Profile[key] = value
		}
	}
	return update, nil
}

func (a *app) routesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show the gate decision for every screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			snap := c.Snapshot()
			rows := make([][]string, 0, len(access.DefaultRoutes))
			for _, r := range access.DefaultRoutes {
				d, _ := access.DefaultRoutes.Evaluate(snap, r.Pattern)
				require := "signed in"
				switch {
				case r.Public:
					require = "public"
				case r.Require.Role != identity.RoleNone:
					require = string(r.Require.Role)
				}
				rows = append(rows, []string{r.Pattern, r.Title, require, a.printer.Decision(d), d.Redirect()})
			}
			return a.printer.table([]string{"path", "screen", "requires", "decision", "redirect"}, rows)
		},
	}
}

func (a *app) navCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the navigation links for the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			snap := c.Snapshot()
			rows := [][]string{}
			for _, l := range access.Navigation(snap) {
				rows = append(rows, []string{l.Label, l.Path})
			}
			if snap.Authenticated() {
				caps := access.DefaultCapabilities().Of(snap.Role())
				sort.Strings(caps)
				a.printer.Info("%s capabilities: %s", snap.Role(), strings.Join(caps, ", "))
			}
			return a.printer.table([]string{"link", "path"}, rows)
		},
	}
}

func (a *app) refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for new credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.settings.Refresh.Enabled = true
			c, err := a.client()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.RotateTokens(cmd.Context()); err != nil {
				if errors.Is(err, skillsync.ErrRefreshUnavailable) {
					a.printer.Warning("no refresh token stored; sign in again")
					return reportedError{err: err}
				}
				return a.fail("refresh", err)
			}
			a.printer.Success("credentials refreshed")
			return nil
		},
	}
}
