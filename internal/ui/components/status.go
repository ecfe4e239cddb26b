// Package components provides shared, reusable interface elements for the
// Research Study Chat Console. This file implements the visual session status
// indicator shown in the conversation header.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/studychat/console/internal/interfaces"
)

// statusStyles maps session states to their corresponding visual style.
var statusStyles = map[interfaces.SessionStatus]lipgloss.Style{
	interfaces.SessionInitializing: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
	interfaces.SessionReady:        lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
	interfaces.SessionFailed:       lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
}

// statusLabels maps session states to the header text shown to the participant.
var statusLabels = map[interfaces.SessionStatus]string{
	interfaces.SessionInitializing: "Connecting…",
	interfaces.SessionReady:        "Connected",
	interfaces.SessionFailed:       "Connection failed",
}

// RenderSessionStatus formats the session state for the conversation header.
func RenderSessionStatus(status interfaces.SessionStatus) string {
	style, exists := statusStyles[status]
	if !exists {
		style = lipgloss.NewStyle()
	}

	label, exists := statusLabels[status]
	if !exists {
		label = status.String()
	}

	return style.Render(fmt.Sprintf("● %s", label))
}

// RenderNotice formats an informational footer notice.
func RenderNotice(message string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6C7086")).
		Italic(true).
		Render(message)
}
