package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/invoketest"
	"github.com/spf13/cobra"
)

type checkFlags struct {
	filter          string
	ephemeralDocker bool
}

func newCheckCommand(g *globalFlags) *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [uri...]",
		Short: "Run the contract suite against execution systems",
		Long: `Runs every behavioral contract against each system URI given as an
argument, or against --uri when there are none, and prints a matrix of the
results. Each contract gets a freshly opened system.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			uris := args
			if len(uris) == 0 {
				uris = []string{g.uri}
			}

			if f.ephemeralDocker {
				uri, cleanup, err := provisionEphemeralDocker(ctx, g)
				if err != nil {
					return fmt.Errorf("failed to provision docker container: %w", err)
				}

				defer cleanup()

				uris = append(uris, uri)
			}

			return runCheck(ctx, cmd.OutOrStdout(), g, uris, f.filter)
		},
	}

	cmd.Flags().StringVar(&f.filter, "run", "", "only run contracts whose ID contains this string")
	cmd.Flags().BoolVar(&f.ephemeralDocker, "ephemeral-docker", false, "also check a throwaway alpine container")

	return cmd
}

func runCheck(ctx context.Context, out io.Writer, g *globalFlags, uris []string, filter string) error {
	fmt.Fprintln(out, titleStyle.Render("giraffe contract check"))

	results := make(map[string][]invoketest.Outcome, len(uris))

	for _, uri := range uris {
		fmt.Fprintln(out, infoStyle.Render("running contracts against "+uri))

		results[uri] = invoketest.Run(ctx, func(ctx context.Context) (giraffe.System, error) {
			return g.open(ctx, uri, false)
		}, filter)
	}

	if failures := renderMatrix(out, uris, results); failures > 0 {
		return &exitError{code: 1}
	}

	return nil
}

// renderMatrix prints one row per contract and one column per system and
// returns the number of failed cells.
func renderMatrix(out io.Writer, uris []string, results map[string][]invoketest.Outcome) int {
	if len(uris) == 0 || len(results[uris[0]]) == 0 {
		fmt.Fprintln(out, infoStyle.Render("no contracts matched"))
		return 0
	}

	rows := results[uris[0]]
	nameWidth, colWidth := columnWidths(rows, uris)

	var header strings.Builder

	header.WriteString(headerStyle.Render(pad("CONTRACT", nameWidth)))

	for i := range uris {
		header.WriteString(" ")
		header.WriteString(headerStyle.Render(pad(columnLabel(i), colWidth)))
	}

	fmt.Fprintln(out, "\n"+header.String())

	var (
		category string
		issues   []string
		skipped  bool
	)

	for row, first := range rows {
		if first.Case.Category != category {
			category = first.Case.Category
			fmt.Fprintln(out, categoryStyle.Render(strings.ToUpper(category)))
		}

		var line strings.Builder

		line.WriteString(pad(fit(first.Case.Name, nameWidth), nameWidth))

		for i, uri := range uris {
			o := results[uri][row]

			switch o.Status {
			case invoketest.StatusFailed:
				issues = append(issues, fmt.Sprintf("[%s] %s: %s", columnLabel(i), o.Case.ID(), strings.Join(o.Messages, "; ")))
			case invoketest.StatusSkipped:
				skipped = true
			}

			line.WriteString(" ")
			line.WriteString(statusStyles[o.Status].Render(pad(strings.ToUpper(o.Status.String()), colWidth)))
		}

		fmt.Fprintln(out, line.String())
	}

	fmt.Fprintln(out)

	for i, uri := range uris {
		fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("%s = %s", columnLabel(i), uri)))
	}

	switch {
	case len(issues) > 0:
		fmt.Fprintln(out, errorStyle.Render("\nfailures:"))

		for _, issue := range issues {
			fmt.Fprintf(out, "  - %s\n", issue)
		}
	case skipped:
		fmt.Fprintln(out, checkStyle.Render("\nno failures; some contracts were skipped"))
	default:
		fmt.Fprintln(out, checkStyle.Render("\nall contracts passed"))
	}

	return len(issues)
}

func columnLabel(i int) string {
	return fmt.Sprintf("#%d", i+1)
}

func columnWidths(rows []invoketest.Outcome, uris []string) (int, int) {
	const (
		nameMinWidth = 30
		nameMaxWidth = 48
	)

	nameWidth := nameMinWidth
	for _, o := range rows {
		nameWidth = max(nameWidth, len(o.Case.Name))
	}

	colWidth := max(len("SKIP"), len(columnLabel(len(uris)-1)))

	return min(nameWidth, nameMaxWidth), colWidth
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

func fit(s string, width int) string {
	if len(s) <= width {
		return s
	}

	return s[:width-1] + "…"
}
