package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/formintake/internal/instrumentation"
	"github.com/teemow/formintake/internal/logging"
	"github.com/teemow/formintake/internal/pdfform"
	"github.com/teemow/formintake/internal/sentinel"
)

// extractDoneLine tells the orchestrator that all fields have been printed.
const extractDoneLine = "User Details Extracted Successfully"

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <pdf_path>",
		Short: "Extract the form fields of an intake PDF",
		Long: `Read the AcroForm fields of a PDF, assemble the approval date, resolve the
request type and requested roles from their checkboxes, and print one
sentinel line per field:

  ##gbStart##<name>##splitKeyValue##<value>##gbEnd##

followed by "User Details Extracted Successfully". A missing or unreadable
PDF makes the command exit with a nonzero status.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0])
		},
	}

	cmd.Flags().String("layout", "", "Form layout file (YAML/JSON) overriding the built-in field names. Can also use FORMINTAKE_EXTRACT_LAYOUT env var.")
	return cmd
}

func runExtract(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := setupRuntime(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.shutdown()

	run := instrumentation.NewRun("extract")
	run.Target = path

	n, err := extractFields(ctx, rt, cmd, path)
	run.Fields = n
	rt.finish(ctx, run, err)
	if err != nil {
		return err
	}

	rt.logger.Debug("extraction completed", logging.Path(path), "fields", n)
	return nil
}

func extractFields(ctx context.Context, rt *runtime, cmd *cobra.Command, path string) (int, error) {
	layout := pdfform.DefaultLayout()
	if rt.cfg.Extract.Layout != "" {
		l, err := pdfform.LoadLayout(rt.cfg.Extract.Layout)
		if err != nil {
			return 0, err
		}
		layout = l
	}

	pairs, err := pdfform.Extract(ctx, path, layout, rt.metrics)
	if err != nil {
		return 0, err
	}

	w := sentinel.NewWriter(cmd.OutOrStdout())
	for _, p := range pairs {
		if err := w.Emit(p.Key, p.Value); err != nil {
			return 0, err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), extractDoneLine)
	return len(pairs), nil
}
