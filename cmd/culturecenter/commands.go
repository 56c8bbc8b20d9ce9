package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/culture-center/internal/center"
	"github.com/example/culture-center/internal/logging"
)

var errAlreadySignedIn = errors.New("이미 로그인되어 있습니다. 먼저 로그아웃해주세요.")

// cli holds the lazily opened app shared by the command tree.
type cli struct {
	open   opener
	out    io.Writer
	errOut io.Writer
	app    *app
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "culturecenter",
		Short:         "Browse culture center campaigns and manage applications",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.start(cmd)
		},
	}

	root.AddCommand(
		c.loginCommand(),
		c.registerCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.campaignsCommand(),
		c.applyCommand(),
		c.applicationsCommand(),
		c.adminCommand(),
	)
	return root
}

// start opens the app and restores the persisted session before any command runs.
func (c *cli) start(cmd *cobra.Command) error {
	a, err := c.open(cmd.Context())
	if err != nil {
		return err
	}
	c.app = a

	ctx := logging.ContextWithLogger(cmd.Context(), a.logger)
	cmd.SetContext(ctx)
	if err := a.session.Restore(ctx); err != nil {
		a.logger.WarnContext(ctx, "stored session could not be restored", "error", err)
	}
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// requireSession returns the session snapshot or ErrUnauthenticated.
func (c *cli) requireSession() (center.Session, error) {
	session := c.app.session.Snapshot()
	if !session.IsAuthenticated() {
		return center.Session{}, center.ErrUnauthenticated
	}
	return session, nil
}

func (c *cli) requireScreen(screen center.Screen) (center.Session, error) {
	session := c.app.session.Snapshot()
	if !center.CapabilitiesOf(session).Allows(screen) {
		if !session.IsAuthenticated() {
			return center.Session{}, center.ErrUnauthenticated
		}
		return center.Session{}, center.ErrPermissionDenied
	}
	return session, nil
}

func (c *cli) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.session.Snapshot().IsAuthenticated() {
				return errAlreadySignedIn
			}
			if err := c.app.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			return c.printSession(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) registerCommand() *cobra.Command {
	var params center.RegisterParams
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a member account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.session.Snapshot().IsAuthenticated() {
				return errAlreadySignedIn
			}
			if err := c.app.session.Register(cmd.Context(), params); err != nil {
				return err
			}
			return c.printSession(cmd.Context())
		},
	}
	bindAccountFlags(cmd, &params)
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.session.Logout(cmd.Context())
			return c.printSession(cmd.Context())
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and reachable screens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printSession(cmd.Context())
		},
	}
}

func (c *cli) adminCommand() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Operator tooling",
	}

	var params center.RegisterParams
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.app.auth.CreateAdmin(cmd.Context(), params)
			if err != nil {
				return err
			}
			return writeYAML(c.out, userViewOf(user))
		},
	}
	bindAccountFlags(create, &params)
	admin.AddCommand(create)
	return admin
}

func bindAccountFlags(cmd *cobra.Command, params *center.RegisterParams) {
	cmd.Flags().StringVar(&params.Name, "name", "", "display name")
	cmd.Flags().StringVar(&params.Email, "email", "", "account email")
	cmd.Flags().StringVar(&params.Password, "password", "", "account password")
	cmd.Flags().StringVar(&params.PhoneNumber, "phone", "", "phone number")
}

func (c *cli) printSession(ctx context.Context) error {
	session := c.app.session.Snapshot()
	view := sessionViewOf(session)
	if session.IsAuthenticated() {
		if _, claims, err := c.app.auth.Resolve(ctx, session.Token); err == nil {
			view.ExpiresAt = claims.ExpiresAt.Time.Local().Format(timestampLayout)
		} else {
			view.ExpiresAt = "만료됨"
		}
	}
	return writeYAML(c.out, view)
}
