package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/palantir/giraffe-sub000/invoketest"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33")).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))

	checkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("33"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true).
			MarginTop(1)

	statusStyles = map[invoketest.Status]lipgloss.Style{
		invoketest.StatusPassed:  lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
		invoketest.StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		invoketest.StatusSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)
