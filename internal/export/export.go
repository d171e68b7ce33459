// Package export serializes an already filtered set of transactions as CSV or
// JSON text.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// Header is the first line of every CSV export.
const Header = "id,type,amount,category,description,date,createdAt,updatedAt"

// TimestampLayout renders UTC instants with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts csv or json. An empty value means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// Filename names a download made at now, e.g. transactions-2024-10-31.csv.
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("transactions-%s.%s", now.Format("2006-01-02"), f)
}

// Write dispatches to the writer for f.
func Write(w io.Writer, f Format, txs []core.Transaction) error {
	if f == FormatJSON {
		return WriteJSON(w, txs)
	}
	return WriteCSV(w, txs)
}

// WriteCSV writes the header line and one record per transaction. Records are
// separated by newlines with no newline after the last one. The description
// is always quoted with embedded quotes doubled.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header)
	bw.WriteByte('\n')
	for i, t := range txs {
		if i > 0 {
			bw.WriteByte('\n')
		}
		bw.WriteString(strings.Join([]string{
			t.ID,
			string(t.Kind),
			t.Amount.String(),
			string(t.Category),
			quote(t.Description),
			timestamp(t.OccurredOn),
			timestamp(t.CreatedAt),
			timestamp(t.UpdatedAt),
		}, ","))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteJSON writes a pretty-printed array using the live record shape.
func WriteJSON(w io.Writer, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	b, err := json.MarshalIndent(txs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
