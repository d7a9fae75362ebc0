package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80")).
		Bold(true).
		Render("L A R A P U S H")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Subscription tags, device tokens and notification clicks for a LaraPush panel.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	commands := []struct{ cmd, desc string }{
		{"larapush tags [list]", "Show subscribed tags"},
		{"larapush tags add <t>...", "Subscribe to tags and sync"},
		{"larapush tags remove <t>...", "Unsubscribe from tags and sync"},
		{"larapush tags clear", "Drop every tag and sync"},
		{"larapush token [--refresh]", "Print (or reissue and sync) the device token"},
		{"larapush sync", "Register token and tags with the panel"},
		{"larapush show '<json>' [--json]", "Render a notification and handle the tap"},
		{"larapush click <action> [url]", "Track and open a click action (--print to echo)"},
		{"larapush listen [--headless]", "Receive pushes over NATS and/or the HTTP relay"},
		{"larapush version", "Show version"},
		{"larapush help", "You are here"},
	}

	env := []struct{ name, desc string }{
		{"LARAPUSH_PANEL_URL", "Panel base URL, with trailing slash (required)"},
		{"LARAPUSH_NAMESPACE", "Application namespace (required)"},
		{"LARAPUSH_DEBUG", "Log every network call and parse failure"},
		{"LARAPUSH_CONFIG", "Optional YAML config file"},
		{"LARAPUSH_STORE", "sqlite (default), redis or memory"},
		{"LARAPUSH_NATS_URL", "NATS server for listen"},
		{"LARAPUSH_HTTP_ADDR", "Address for the local HTTP relay"},
	}

	fmt.Fprintf(w, "\n  %s\n\n  %s\n\n  %s\n", title, tagline, sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-34s", c.cmd)), descStyle.Render(c.desc))
	}
	fmt.Fprintf(w, "\n  %s\n", sectionStyle.Render("Environment"))
	for _, e := range env {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-34s", e.name)), descStyle.Render(e.desc))
	}
	fmt.Fprintln(w)
}
