package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	dbf "github.com/Ulysses-Xu/dbfreader"
)

func newRowsCmd(opts *tableOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rows FILE",
		Short: "Print the active records of a table",
		Long: `Print the active records of a table.

In json output every row is one object whose keys follow the field order.
When a field name repeats, its n-th occurrence is keyed NAME#n.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.readerConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			reader, err := openTable(args[0], cfg)
			if err != nil {
				return err
			}
			defer reader.Close()

			if outputFormat(cmd, opts) == "json" {
				return printRowsJSON(cmd, reader, limit)
			}
			return printRowsTable(cmd, reader, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many rows (0 = all)")
	return cmd
}

// errLimitReached stops ForEach once enough rows were printed.
var errLimitReached = errors.New("row limit reached")

func forEachRow(reader *dbf.Reader, limit int, fn func(row *dbf.Row) error) error {
	n := 0
	err := reader.ForEach(func(row *dbf.Row) error {
		if limit > 0 && n == limit {
			return errLimitReached
		}
		n++
		return fn(row)
	})
	if errors.Is(err, errLimitReached) {
		return nil
	}
	return err
}

// printRowsJSON writes one JSON object per line.
func printRowsJSON(cmd *cobra.Command, reader *dbf.Reader, limit int) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	keys := jsonKeys(reader.Fields())
	return forEachRow(reader, limit, func(row *dbf.Row) error {
		return enc.Encode(jsonRow{keys: keys, row: row})
	})
}

// jsonKeys names the columns of a JSON row, suffixing repeated names.
func jsonKeys(fields []dbf.Field) []string {
	keys := make([]string, len(fields))
	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		seen[f.Name]++
		keys[i] = f.Name
		if n := seen[f.Name]; n > 1 {
			keys[i] = fmt.Sprintf("%s#%d", f.Name, n)
		}
	}
	return keys
}

// jsonRow encodes a row as an object with its keys in field order.
type jsonRow struct {
	keys []string
	row  *dbf.Row
}

func (r jsonRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.row.Value(i))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func printRowsTable(cmd *cobra.Command, reader *dbf.Reader, limit int) error {
	fields := reader.Fields()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))

	err := forEachRow(reader, limit, func(row *dbf.Row) error {
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i] = formatValue(row, i, f)
		}
		_, err := fmt.Fprintln(w, strings.Join(values, "\t"))
		return err
	})
	if err != nil {
		return err
	}
	return w.Flush()
}
