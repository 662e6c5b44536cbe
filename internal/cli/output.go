package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	dbf "github.com/Ulysses-Xu/dbfreader"
)

const nullText = "NULL"

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

// outputFormat returns the configured format, or table on a terminal and
// json when piped.
func outputFormat(cmd *cobra.Command, opts *tableOptions) string {
	if opts.output != "" {
		return opts.output
	}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "table"
	}
	return "json"
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatValue renders one value as text. Numbers keep the field's declared
// decimal places.
func formatValue(row *dbf.Row, i int, field dbf.Field) string {
	if row.IsNull(i) {
		return nullText
	}
	switch field.Type {
	case dbf.Date:
		t, _ := row.Time(i)
		return t.Format("2006-01-02")
	case dbf.Numeric, dbf.Float:
		d, _ := row.Decimal(i)
		return d.StringFixed(int32(field.DecimalCount))
	case dbf.Logical:
		b, _ := row.Bool(i)
		return strconv.FormatBool(b)
	default:
		return row.String(i)
	}
}
