// package formatter converts list data to export formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/castock/listsync/internal/engine"
	"github.com/castock/listsync/internal/models"
)

// ExportToCSV flattens the dataset to CSV with columns: List, Kind, Item, Description, Category, Priority, Done
func ExportToCSV(views []*engine.ListView) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"List", "Kind", "Item", "Description", "Category", "Priority", "Done"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, view := range views {
		for _, item := range view.Items {
			record := []string{
				view.List.Name,
				string(view.List.Kind),
				item.Title,
				item.Description,
				item.Category,
				strconv.FormatFloat(item.Priority, 'f', -1, 64),
				strconv.FormatBool(item.Done),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the dataset as one Markdown section per list,
// items as task list entries.
func ExportToMarkdown(views []*engine.ListView) ([]byte, error) {
	var buf bytes.Buffer

	for _, view := range views {
		buf.WriteString(fmt.Sprintf("# %s\n\n", view.List.Name))
		buf.WriteString(fmt.Sprintf("**Kind**: %s\n", view.List.Kind))
		buf.WriteString(fmt.Sprintf("**Items**: %d\n\n", len(view.Items)))

		for _, item := range view.Items {
			check := " "
			if item.Done {
				check = "x"
			}
			buf.WriteString(fmt.Sprintf("- [%s] %s", check, item.Title))
			if item.Description != "" {
				buf.WriteString(fmt.Sprintf(" - %s", item.Description))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders the dataset as indented plain text.
func ExportToText(views []*engine.ListView) ([]byte, error) {
	var buf bytes.Buffer

	for _, view := range views {
		buf.WriteString(fmt.Sprintf("%s (%s, %d items)\n", view.List.Name, view.List.Kind, len(view.Items)))
		for i, item := range view.Items {
			marker := " "
			if item.Done {
				marker = "*"
			}
			buf.WriteString(fmt.Sprintf("  %d. [%s] %s\n", i+1, marker, item.Title))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the dataset in the wire shape the import command and
// the remote backend both understand.
func ExportToJSON(views []*engine.ListView) ([]byte, error) {
	dump := models.APIDump{}
	for _, view := range views {
		dump.Lists = append(dump.Lists, *view.List)
		for _, item := range view.Items {
			dump.Items = append(dump.Items, *item)
		}
	}

	data, err := json.MarshalIndent(&dump, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON: %w", err)
	}
	return data, nil
}

// WriteExport renders the dataset in the named format and writes it to path.
// Supported formats: csv, markdown, json, text.
func WriteExport(views []*engine.ListView, format, path string) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(views)
		ext = ".csv"
	case "markdown", "md":
		data, err = ExportToMarkdown(views)
		ext = ".md"
	case "json":
		data, err = ExportToJSON(views)
		ext = ".json"
	case "text", "txt", "":
		data, err = ExportToText(views)
		ext = ".txt"
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "listsync_export" + ext
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
