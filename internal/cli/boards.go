package cli

import (
	"fmt"
	"strings"

	"github.com/dori/tasktrackr/internal/model"
	"github.com/spf13/cobra"
)

func newBoardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List boards with their task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := requireUser(cmd.Context(), a); err != nil {
				return err
			}

			boards := a.Tasks.Boards()
			out := cmd.OutOrStdout()
			if len(boards) == 0 {
				fmt.Fprintln(out, "No boards yet. Create one with `tasktrackr boards add <name>`.")
				return nil
			}

			counts := make(map[string]map[model.Status]int)
			for _, t := range a.Tasks.Tasks() {
				if counts[t.BoardID] == nil {
					counts[t.BoardID] = make(map[model.Status]int)
				}
				counts[t.BoardID][t.Status]++
			}

			active := a.Tasks.ActiveBoard()
			for _, b := range boards {
				marker := " "
				if b.ID == active {
					marker = "*"
				}
				c := counts[b.ID]
				fmt.Fprintf(out, "%s %-24s %s  todo:%d  doing:%d  done:%d\n",
					marker, b.Name, b.Color,
					c[model.StatusTodo], c[model.StatusInProgress], c[model.StatusDone])
			}
			return nil
		},
	}

	cmd.AddCommand(newBoardsAddCmd())
	return cmd
}

func newBoardsAddCmd() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a board and make it active",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := requireUser(cmd.Context(), a); err != nil {
				return err
			}

			board, err := a.Tasks.CreateBoard(cmd.Context(), model.BoardDraft{
				Name:  strings.Join(args, " "),
				Color: color,
			}.Normalize())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created board %s (%s)\n", board.Name, board.Color)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", model.BoardColors[0], "board color")
	return cmd
}
