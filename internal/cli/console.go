package cli

import (
	"context"
	"fmt"

	"exam-service/internal/domain"
	"exam-service/internal/transport/console"
	"github.com/spf13/cobra"
)

type credentials struct {
	username string
	password string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&c.username, "user", "", "username to sign in as")
	cmd.PersistentFlags().StringVar(&c.password, "password", "", "password (prompted when omitted)")
}

// login resolves the console user, prompting for missing credentials.
func (c *credentials) login(ctx context.Context, svc *services, p *console.Presenter) (*domain.User, error) {
	username, password := c.username, c.password
	var err error
	if username == "" {
		if username, err = p.AskText(ctx, "Username", ""); err != nil {
			return nil, err
		}
	}
	if password == "" {
		if password, err = p.AskSecret(ctx, "Password"); err != nil {
			return nil, err
		}
	}
	user, err := svc.auth.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// loginAdmin is login for catalog mutations; non-admins are turned away
// before any authoring prompt is shown.
func (c *credentials) loginAdmin(ctx context.Context, svc *services, p *console.Presenter) (*domain.User, error) {
	user, err := c.login(ctx, svc, p)
	if err != nil {
		return nil, err
	}
	if !user.CanManageCatalog() {
		return nil, fmt.Errorf("%w: %s is not an admin", domain.ErrUnauthorized, user.Username)
	}
	return user, nil
}

// runConsole wires services and a console presenter for one command. Core
// errors are shown through the presenter as their user-facing message.
func runConsole(cmd *cobra.Command, configPath string, fn func(ctx context.Context, svc *services, p *console.Presenter) error) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	p := console.NewPresenter(cmd.InOrStdin(), cmd.OutOrStdout())
	if err := fn(ctx, svc, p); err != nil {
		cmd.SilenceErrors = true
		return err
	}
	return nil
}

func showFailure(ctx context.Context, p *console.Presenter, err error) error {
	_ = p.ShowError(ctx, domain.Message(err))
	return err
}
