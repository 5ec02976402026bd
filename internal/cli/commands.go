package cli

import (
	"context"
	"fmt"
	"strconv"

	"loan-intake/internal/intake"

	"github.com/spf13/cobra"
)

func newSubmitCommand(opts *RootOptions, factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <applicant_id> <file>",
		Short: "Submit a loan application with a JPEG scan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, factory, func(ctx context.Context, svc Service) (interface{}, bool) {
				res := svc.Submit(ctx, args[0], intake.NewLocalFile(args[1]))
				return res, res.Success
			})
		},
	}
}

func newListCommand(opts *RootOptions, factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "list [applicant_id]",
		Short: "List loan applications, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var applicantID *string
			if len(args) == 1 {
				applicantID = &args[0]
			}
			return run(cmd, opts, factory, func(ctx context.Context, svc Service) (interface{}, bool) {
				res := svc.List(ctx, applicantID)
				return res, res.Success
			})
		},
	}
}

func newUpdateStatusCommand(opts *RootOptions, factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "update-status <application_id> <status>",
		Short: "Overwrite the status of an application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseApplicationID(args[0])
			if err != nil {
				return printFailure(cmd.OutOrStdout(), "Error: "+err.Error())
			}
			return run(cmd, opts, factory, func(ctx context.Context, svc Service) (interface{}, bool) {
				res := svc.UpdateStatus(ctx, id, args[1])
				return res, res.Success
			})
		},
	}
}

func newGetCommand(opts *RootOptions, factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "get <application_id>",
		Short: "Show one application and its status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseApplicationID(args[0])
			if err != nil {
				return printFailure(cmd.OutOrStdout(), "Error: "+err.Error())
			}
			return run(cmd, opts, factory, func(ctx context.Context, svc Service) (interface{}, bool) {
				res := svc.Get(ctx, id)
				return res, res.Success
			})
		},
	}
}

func newMigrateCommand(opts *RootOptions, factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the upload directory and application tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, factory, func(ctx context.Context, svc Service) (interface{}, bool) {
				if err := svc.Migrate(ctx); err != nil {
					return outcome{Success: false, Message: "Error: " + err.Error()}, false
				}
				return outcome{Success: true, Message: "Migration complete"}, true
			})
		},
	}
}

func parseApplicationID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid application ID %q", s)
	}
	return id, nil
}
