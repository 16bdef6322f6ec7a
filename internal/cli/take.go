package cli

import (
	"context"

	"exam-service/internal/transport/console"
	"github.com/spf13/cobra"
)

// NewTakeCmd runs one exam attempt on the console.
func NewTakeCmd(configPath *string) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "take <exam-id>",
		Short: "Take an exam on the console",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseExamID(args[0])
			if err != nil {
				return err
			}
			return runConsole(cmd, *configPath, func(ctx context.Context, svc *services, p *console.Presenter) error {
				user, err := creds.login(ctx, svc, p)
				if err != nil {
					return showFailure(ctx, p, err)
				}
				// Take reports its own failures through the presenter.
				_, err = svc.attempts.Take(ctx, id, user, p)
				return err
			})
		},
	}
	creds.bind(cmd)
	return cmd
}
