package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"nlsql/internal/perception"
	"nlsql/internal/store"
	"nlsql/internal/web"
)

var (
	askPlain bool
	askTrace bool
)

// askCmd runs one question from the terminal
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Translate and run one question, printing the SQL and the rows",
	Long: `Runs a single question through the same pipeline as the web interface.

Example:
  nlsql ask "which airlines fly out of ABE"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "Print without terminal styling")
	askCmd.Flags().BoolVar(&askTrace, "trace", false, "Print text-generation attempts and timing")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// The question reaches the translator verbatim; trimming is only for the blank check.
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question is empty")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := a.pipeline.Run(ctx, question)
	w := cmd.OutOrStdout()

	if askTrace && a.traces != nil {
		writeTraces(cmd.ErrOrStderr(), a.traces.Recent())
	}
	if out.Query != "" {
		fmt.Fprintln(w, renderSQL(out.Query, askPlain))
	}
	if out.Failed() {
		return errors.New(out.ErrorMessage())
	}
	writeResults(w, out.Results, askPlain)
	return nil
}

// renderSQL highlights the query as a fenced markdown block. It falls back
// to the raw text when plain output is requested or rendering fails.
func renderSQL(query string, plain bool) string {
	if plain {
		return query
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return query
	}
	rendered, err := r.Render("```sql\n" + query + "\n```\n")
	if err != nil {
		return query
	}
	return strings.TrimRight(rendered, "\n")
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// writeResults prints rs as a table with the query's column order.
func writeResults(w io.Writer, rs *store.ResultSet, plain bool) {
	if rs.Empty() {
		fmt.Fprintln(w, "No rows matched.")
		return
	}

	t := table.New().Headers(rs.Columns...)
	for _, rec := range rs.Records {
		row := make([]string, len(rec.Fields))
		for i, f := range rec.Fields {
			row[i] = web.FormatCell(f.Value)
		}
		t.Row(row...)
	}
	if plain {
		t.Border(lipgloss.ASCIIBorder())
	} else {
		t.Border(lipgloss.RoundedBorder()).StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d row(s)\n", rs.Len())
}

// writeTraces prints one line per text-generation call.
func writeTraces(w io.Writer, traces []perception.Trace) {
	for _, tr := range traces {
		status := "ok"
		if !tr.Success {
			status = "failed: " + tr.ErrorMessage
		}
		fmt.Fprintf(w, "trace %s model=%s attempts=%d duration=%dms %s\n", tr.ID, tr.Model, tr.Attempts, tr.DurationMs, status)
	}
}
