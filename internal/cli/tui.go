package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dori/tasktrackr/internal/app"
	"github.com/dori/tasktrackr/internal/ui"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg, app.Options{Lock: true})
	if err != nil {
		return err
	}
	defer application.Close()

	p := tea.NewProgram(
		ui.NewRootModel(application),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)

	_, err = p.Run()
	return err
}
