package cli

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/jmoiron/sqlx"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

const nullText = "NULL"

type resultSet struct {
	columns []string
	rows    [][]string
}

// collectRows drains rows into printable cells and closes them.
func collectRows(rows *sql.Rows) (*resultSet, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &resultSet{columns: columns}
	for rows.Next() {
		values, err := sqlx.SliceScan(rows)
		if err != nil {
			return nil, err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		result.rows = append(result.rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// formatValue renders a scanned driver value; nil becomes NULL.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return nullText
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

func renderTable(r *resultSet) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(r.columns...).
		Rows(r.rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String() + fmt.Sprintf("\n(%d row%s)", len(r.rows), plural(len(r.rows)))
}

func renderPlain(r *resultSet) string {
	var b strings.Builder
	b.WriteString(strings.Join(r.columns, "\t"))
	b.WriteString("\n")
	for _, row := range r.rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
