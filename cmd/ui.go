package main

import "github.com/charmbracelet/lipgloss"

// styles for startup output
var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")).Bold(true)
	urlStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Underline(true)
	routeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)
