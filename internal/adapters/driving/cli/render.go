package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/topicmap/internal/core/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// newTable returns a bordered table. Columns listed in numeric are right-aligned.
func newTable(headers []string, numeric ...int) *table.Table {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
}

func renderTopics(w io.Writer, topics []domain.Topic) {
	t := newTable([]string{"ID", "Size", "%", "Name"}, 1, 2)
	for _, topic := range topics {
		t.Row(topic.ID, fmt.Sprint(topic.Size), fmt.Sprintf("%.1f", topic.Percent), topic.DisplayName())
	}
	fmt.Fprintln(w, t.Render())
}

func renderQuadrants(w io.Writer, shares []domain.QuadrantShare) {
	t := newTable([]string{"Quadrant", "Documents", "%"}, 1, 2)
	for _, s := range shares {
		t.Row(string(s.Quadrant), fmt.Sprint(s.Count), fmt.Sprintf("%.1f", s.Percent))
	}
	fmt.Fprintln(w, t.Render())
}
