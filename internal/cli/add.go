package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dori/tasktrackr/internal/model"
	"github.com/dori/tasktrackr/internal/quickadd"
	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "add <task>",
		Short: "Quick add a task",
		Long: `Quick add a task to the logged in user's active board.

  Priority:  !low !medium !high
  Due date:  due:today due:tomorrow due:friday due:2026-01-15
  Board:     #name (matched case-insensitively)`,
		Example: `  tasktrackr add "Write report !high due:friday #Marketing"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			parsed := quickadd.Parse(strings.Join(args, " "), now)
			if status != "" {
				s, ok := model.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				parsed.Draft.Status = s
			}

			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := requireUser(cmd.Context(), a); err != nil {
				return err
			}

			if parsed.Board != "" {
				board, ok := findBoard(a.Tasks.Boards(), parsed.Board)
				if !ok {
					return fmt.Errorf("no board named %q", parsed.Board)
				}
				parsed.Draft.BoardID = board.ID
			}

			task, err := a.Tasks.CreateTask(cmd.Context(), parsed.Draft)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created: %s\n", task.Title)
			if task.DueDate != nil {
				fmt.Fprintf(out, "Due: %s\n", quickadd.FormatDate(*task.DueDate, now))
			}
			if task.Priority != model.PriorityMedium {
				fmt.Fprintf(out, "Priority: %s\n", task.Priority)
			}
			if task.BoardID != "" {
				for _, b := range a.Tasks.Boards() {
					if b.ID == task.BoardID {
						fmt.Fprintf(out, "Board: %s\n", b.Name)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "initial column (todo, in-progress, done)")
	return cmd
}

func findBoard(boards []model.Board, name string) (model.Board, bool) {
	for _, b := range boards {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return model.Board{}, false
}
