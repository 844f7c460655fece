// Package cli holds what the harmonizer subcommands share: flag access,
// signal handling and terminal styling.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"embedding-harmonizer/internal/app"
)

// ConfigFlag is the persistent flag naming the config file.
const ConfigFlag = "config"

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// ConfigPath returns the --config value of cmd, inherited from the root.
func ConfigPath(cmd *cobra.Command) app.ConfigPath {
	path, _ := cmd.Flags().GetString(ConfigFlag)
	return app.ConfigPath(path)
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Heading prints a section title.
func Heading(w io.Writer, title string) {
	fmt.Fprintln(w, headingStyle.Render(title))
}

// Muted renders secondary text.
func Muted(s string) string { return mutedStyle.Render(s) }

// OK renders a success marker.
func OK(s string) string { return okStyle.Render(s) }

// Warn renders a warning marker.
func Warn(s string) string { return warnStyle.Render(s) }

// Fail renders a failure marker.
func Fail(s string) string { return errStyle.Render(s) }

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
