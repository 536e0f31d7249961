// Package ui holds the terminal styles shared by the CLI commands.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/klimat/klimat/internal/model"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	onlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	offlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dirtyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Header renders a section heading.
func Header(title string) string {
	return headerStyle.Render(title)
}

// Field renders a labelled value.
func Field(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

// Status renders a task status in its colour.
func Status(status string) string {
	switch status {
	case model.StatusDone:
		return doneStyle.Render(status)
	case model.StatusSkipped:
		return skippedStyle.Render(status)
	default:
		return pendingStyle.Render(status)
	}
}

// Priority renders a priority marker; routine priorities come back
// unstyled.
func Priority(priority string) string {
	switch priority {
	case model.PriorityCritical:
		return criticalStyle.Render(priority)
	case model.PriorityHigh:
		return highStyle.Render(priority)
	default:
		return priority
	}
}

// Connectivity renders the online/offline badge.
func Connectivity(online bool) string {
	if online {
		return onlineStyle.Render("online")
	}
	return offlineStyle.Render("offline")
}

// SyncBadge marks a record still waiting to upload.
func SyncBadge(synced bool) string {
	if synced {
		return ""
	}
	return dirtyStyle.Render(" [pending sync]")
}

// Task renders a one-line task summary.
func Task(t model.Task) string {
	line := fmt.Sprintf("%s %s  %s (%s, due %s)",
		t.Icon, t.Name, Status(t.Status), Priority(t.Priority), t.DueDate)
	return line + SyncBadge(t.Synced)
}
