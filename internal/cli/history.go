package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/alanmeadows/playrun/internal/pipeline"
	"github.com/alanmeadows/playrun/internal/store"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd(o *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent playbook runs",
		Long: `Display the most recent recorded runs in a table.

Shows when each run started, the environment, playbook, mode, exit status
and recap counters.`,
		Example: `  playrun history
  playrun history -n 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pipeline.HistoryPath(o.cfg)
			if !store.Exists(path) {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			h, err := store.OpenHistory(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("opening history: %w", err)
			}
			defer h.Close()

			entries, err := h.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
			cellStyle := lipgloss.NewStyle().Padding(0, 1)

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				mode := "apply"
				if e.Check {
					mode = "check"
				}
				rows = append(rows, []string{
					humanize.Time(e.StartedAt),
					e.Environment,
					e.Playbook,
					mode,
					strconv.Itoa(e.ExitStatus),
					fmt.Sprintf("%d/%d/%d/%d", e.OK, e.Changed, e.Failed, e.Unreachable),
					e.Duration.Round(time.Second).String(),
				})
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("STARTED", "ENV", "PLAYBOOK", "MODE", "EXIT", "OK/CHG/FAIL/UNR", "DURATION").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})

			fmt.Fprintln(cmd.OutOrStdout(), t)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}
