package formatter

import (
	"fmt"
	"strings"

	"github.com/castock/listsync/internal/engine"
	"github.com/castock/listsync/internal/models"
	"github.com/charmbracelet/lipgloss"
)

// Palette is a simple stylesheet built with named [lipgloss.Style] fields.
type Palette struct {
	title   lipgloss.Style
	group   lipgloss.Style
	done    lipgloss.Style
	pending lipgloss.Style
	err     lipgloss.Style
	help    lipgloss.Style
}

var styles = NewPalette("#7D56F4", "#04B575", "#FFA500", "#FF0000", "#626262")

func NewPalette(t, d, p, e, h string) *Palette {
	return &Palette{
		title:   newBold(t),
		group:   newBold(h),
		done:    newStyle(d),
		pending: newStyle(p),
		err:     newBold(e),
		help:    newEm(h),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

func newEm(fg string) lipgloss.Style {
	return newStyle(fg).Italic(true)
}

// RenderLists renders the dataset grouped by kind for terminal output.
func RenderLists(views []*engine.ListView) string {
	if len(views) == 0 {
		return styles.help.Render("no lists yet") + "\n"
	}

	byID := make(map[string]*engine.ListView, len(views))
	lists := make([]*models.List, 0, len(views))
	for _, view := range views {
		byID[view.List.ID] = view
		lists = append(lists, view.List)
	}

	var b strings.Builder
	models.BuildTree(lists).Walk(func(node models.TreeNode, depth int) {
		switch {
		case depth == 0:
			return
		case node.ListID == "":
			b.WriteString(styles.group.Render(node.Label) + "\n")
		default:
			view := byID[node.ListID]
			line := fmt.Sprintf("  %s (%d items)", styles.title.Render(node.Label), len(view.Items))
			if view.List.Pending {
				line += " " + styles.pending.Render("pending sync")
			}
			b.WriteString(line + "\n")
		}
	})

	return b.String()
}

// RenderItems renders one list with its items for terminal output.
func RenderItems(view *engine.ListView) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(view.List.Name) + styles.help.Render(" ["+string(view.List.Kind)+"]") + "\n")

	if len(view.Items) == 0 {
		b.WriteString(styles.help.Render("  empty") + "\n")
		return b.String()
	}

	for i, item := range view.Items {
		marker := "[ ]"
		if item.Done {
			marker = styles.done.Render("[x]")
		}
		line := fmt.Sprintf("  %d. %s %s", i+1, marker, item.Title)
		if item.Category != "" {
			line += styles.help.Render(" #" + item.Category)
		}
		if item.Pending {
			line += " " + styles.pending.Render("pending sync")
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

// RenderReport summarizes a migration run for terminal output.
func RenderReport(report *engine.MigrationReport) string {
	if report == nil {
		return styles.help.Render("nothing to migrate") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("migration: "+report.Strategy.String()) + "\n")
	b.WriteString(fmt.Sprintf("  lists written:  %d\n", report.ListsWritten))
	b.WriteString(fmt.Sprintf("  items written:  %d\n", report.ItemsWritten))
	b.WriteString(fmt.Sprintf("  skipped:        %d\n", report.Skipped))

	if len(report.Failures) > 0 {
		b.WriteString(styles.err.Render(fmt.Sprintf("  failures:       %d", len(report.Failures))) + "\n")
		for _, failure := range report.Failures {
			b.WriteString("    " + styles.err.Render(failure.Error()) + "\n")
		}
	}

	return b.String()
}

// RenderStatus summarizes the engine's mode and recent operation health.
func RenderStatus(mode models.PersistenceMode, userID string, tracker *engine.OpTracker) string {
	var b strings.Builder
	b.WriteString(styles.title.Render("mode: "+mode.String()) + "\n")

	if userID != "" {
		b.WriteString("  user: " + userID + "\n")
	} else {
		b.WriteString(styles.help.Render("  not signed in") + "\n")
	}

	history := tracker.History()
	if len(history) == 0 {
		b.WriteString(styles.help.Render("  no operations recorded") + "\n")
		return b.String()
	}

	last := history[len(history)-1]
	b.WriteString(fmt.Sprintf("  last op: %s (%s)\n", last.Name, last.State))
	if rate := tracker.FallbackRate(); rate > 0 {
		b.WriteString(styles.pending.Render(fmt.Sprintf("  %.0f%% of recent ops fell back to local", rate*100)) + "\n")
	}

	return b.String()
}
