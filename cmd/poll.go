package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/formintake/internal/graph"
	"github.com/teemow/formintake/internal/instrumentation"
	"github.com/teemow/formintake/internal/logging"
	"github.com/teemow/formintake/internal/poller"
	"github.com/teemow/formintake/internal/state"
)

// pollArgs are the positional arguments of the poll command, in order.
type pollArgs struct {
	dir     string
	creds   graph.Credentials
	mailbox string
}

func newPollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll <attachment_dir> <client_id> <client_secret> <tenant_id> <mailbox_email>",
		Short: "Poll a mailbox for intake requests and download their attachments",
		Long: `Fetch messages newer than the last processed one from a Microsoft 365
mailbox, record every message whose subject contains the target phrase in
<attachment_dir>/matched_emails.json and save its file attachments to
<attachment_dir>. Each saved file's path is printed as an
attachment_file_path sentinel line.

On the first run (no last_processed_email.json yet) only messages from the
last hour are considered.

Errors are printed as "An error occurred: ..." and the command exits with
status 0 unless --strict-exit is set.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 5 {
				return fmt.Errorf("accepts 5 arg(s), received %d\nUsage: %s", len(args), cmd.UseLine())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoll(cmd, pollArgs{
				dir: args[0],
				creds: graph.Credentials{
					ClientID:     args[1],
					ClientSecret: args[2],
					TenantID:     args[3],
				},
				mailbox: args[4],
			})
		},
	}

	cmd.Flags().Bool("strict-exit", false, "Exit with a nonzero status when the run fails. Can also use FORMINTAKE_POLL_STRICT_EXIT env var.")
	cmd.Flags().String("subject", poller.DefaultSubject, "Phrase matched case-insensitively against message subjects. Can also use FORMINTAKE_SUBJECT env var.")
	return cmd
}

func runPoll(cmd *cobra.Command, args pollArgs) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := setupRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	out := cmd.OutOrStdout()
	logger := rt.logger.With(logging.Mailbox(args.mailbox), logging.Domain(args.mailbox))

	run := instrumentation.NewRun("poll")
	run.Mailbox = args.mailbox
	run.Target = args.dir

	res, err := pollMailbox(ctx, rt, args, out)
	run.Matched = res.Matched
	run.Attachments = len(res.Attachments)
	rt.finish(ctx, run, err)

	if err != nil {
		logger.Error("poll failed", logging.Err(err))
		fmt.Fprintf(out, "An error occurred: %v\n", err)
		if rt.cfg.Poll.StrictExit {
			// already reported on stdout
			cmd.SilenceErrors = true
			return err
		}
		return nil
	}

	logger.Info("poll completed",
		logging.Status(instrumentation.StatusSuccess),
		"scanned", res.Scanned,
		"skipped", res.Skipped,
		"matched", res.Matched,
		"attachments", len(res.Attachments))
	return nil
}

func pollMailbox(ctx context.Context, rt *runtime, args pollArgs, out io.Writer) (poller.Result, error) {
	store, err := state.Open(args.dir)
	if err != nil {
		return poller.Result{}, err
	}
	if rt.cfg.Poll.Lock {
		if err := store.Lock(); err != nil {
			if errors.Is(err, state.ErrLocked) {
				return poller.Result{}, fmt.Errorf("another poll is running: %w", err)
			}
			return poller.Result{}, err
		}
		defer func() {
			if err := store.Unlock(); err != nil {
				rt.logger.Warn("failed to release state lock", logging.Err(err))
			}
		}()
	}

	opts := rt.cfg.GraphOptions()
	opts.Metrics = rt.metrics
	opts.Logger = rt.logger

	client, err := graph.NewClient(ctx, args.creds, args.mailbox, opts)
	if err != nil {
		return poller.Result{}, err
	}
	fmt.Fprintln(out, "Access token acquired successfully.")

	p := poller.New(client, store, out, rt.cfg.PollerConfig(),
		poller.WithLogger(rt.logger),
		poller.WithMetrics(rt.metrics),
	)
	return p.Run(ctx)
}
