// Package cli implements the tasktrackr command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dori/tasktrackr/internal/app"
	"github.com/dori/tasktrackr/internal/config"
	"github.com/dori/tasktrackr/internal/model"
	"github.com/spf13/cobra"
)

var (
	configPath string
	themeName  string
	modeName   string
	dataDir    string
)

// NewRootCmd builds the command tree. Without a subcommand it starts the TUI.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tasktrackr",
		Short: "tasktrackr - a bizarre task adventure",
		Long: `tasktrackr organises tasks into boards and three columns
(To Do, In Progress, Done), backed by a local database, a shared server
or an in-memory demo.

Run without arguments to open the terminal UI.`,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/tasktrackr/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "theme name (stardust, nord, dracula, gruvbox, catppuccin)")
	rootCmd.PersistentFlags().StringVar(&modeName, "mode", "", "backend mode (sqlite, postgres, remote, legacy, demo)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory")

	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newBoardsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd(version))

	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig reads the config and applies the global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if themeName != "" {
		cfg.Theme = themeName
	}
	if modeName != "" {
		cfg.Backend.Mode = modeName
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp loads config and wires the application without the TUI lock
func openApp(logOutput io.Writer) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.Options{LogOutput: logOutput})
}

// requireUser restores the stored session and loads the user's boards
func requireUser(ctx context.Context, a *app.App) (*model.User, error) {
	user := a.Auth.Restore(ctx)
	if user == nil {
		return nil, fmt.Errorf("not logged in, run `tasktrackr login` first")
	}
	if err := a.Tasks.Load(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
