// Package cli implements loanctl, the command-line caller of the loan
// application operations. Every command prints one JSON document on stdout.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"loan-intake/internal/intake"
	"loan-intake/internal/loanapp"

	"github.com/spf13/cobra"
)

// ErrOperationFailed is returned by Execute when the printed result has
// success=false. main maps any error to exit status 1.
var ErrOperationFailed = errors.New("operation failed")

// Service is what the commands call.
type Service interface {
	Submit(ctx context.Context, applicantID string, upload intake.Upload) *loanapp.SubmitResult
	List(ctx context.Context, applicantID *string) *loanapp.ListResult
	UpdateStatus(ctx context.Context, applicationID int64, status string) *loanapp.UpdateResult
	Get(ctx context.Context, applicationID int64) *loanapp.GetResult
	Migrate(ctx context.Context) error
}

// ServiceFactory opens the service for one command run. The returned
// closer releases its connections.
type ServiceFactory func(ctx context.Context, opts *RootOptions) (Service, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Timeout    time.Duration
}

func NewRootCommand(factory ServiceFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "loanctl",
		Short:         "Submit and manage member loan applications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: configs/config.yaml search)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "deadline for the whole command")

	cmd.AddCommand(newSubmitCommand(opts, factory))
	cmd.AddCommand(newListCommand(opts, factory))
	cmd.AddCommand(newUpdateStatusCommand(opts, factory))
	cmd.AddCommand(newGetCommand(opts, factory))
	cmd.AddCommand(newMigrateCommand(opts, factory))

	return cmd
}

// outcome is the bare {success, message} document for commands without a
// service result of their own.
type outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// run opens the service, invokes fn and prints what it returns. fn reports
// whether the operation succeeded.
func run(cmd *cobra.Command, opts *RootOptions, factory ServiceFactory, fn func(ctx context.Context, svc Service) (interface{}, bool)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	svc, closeFn, err := factory(ctx, opts)
	if err != nil {
		return printFailure(cmd.OutOrStdout(), "Error: "+err.Error())
	}
	defer closeFn()

	result, ok := fn(ctx, svc)
	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !ok {
		return ErrOperationFailed
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

func printFailure(w io.Writer, message string) error {
	if err := printJSON(w, outcome{Success: false, Message: message}); err != nil {
		return err
	}
	return ErrOperationFailed
}
