package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	dbf "github.com/Ulysses-Xu/dbfreader"
)

const maxConcurrentOpens = 4

type fieldInfo struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Length        int    `json:"length"`
	DecimalCount  int    `json:"decimal_count"`
	WorkAreaID    byte   `json:"work_area_id"`
	ProductionMDX bool   `json:"production_mdx"`
}

type tableInfo struct {
	File                  string      `json:"file"`
	Version               byte        `json:"version"`
	LastUpdated           string      `json:"last_updated"`
	RecordCount           int         `json:"record_count"`
	HeaderLength          int         `json:"header_length"`
	RecordLength          int         `json:"record_length"`
	IncompleteTransaction bool        `json:"incomplete_transaction"`
	Encrypted             bool        `json:"encrypted"`
	ProductionMDX         bool        `json:"production_mdx"`
	LanguageDriverID      byte        `json:"language_driver_id"`
	Fields                []fieldInfo `json:"fields"`
}

func newTableInfo(file string, meta *dbf.Metadata) tableInfo {
	info := tableInfo{
		File:                  file,
		Version:               meta.Version,
		LastUpdated:           meta.LastUpdated.Format("2006-01-02"),
		RecordCount:           meta.RecordCount,
		HeaderLength:          meta.HeaderLength,
		RecordLength:          meta.RecordLength,
		IncompleteTransaction: meta.IncompleteTransaction,
		Encrypted:             meta.Encrypted,
		ProductionMDX:         meta.ProductionMDX,
		LanguageDriverID:      meta.LanguageDriverID,
		Fields:                make([]fieldInfo, 0, len(meta.Fields)),
	}
	for _, f := range meta.Fields {
		info.Fields = append(info.Fields, fieldInfo{
			Name:          f.Name,
			Type:          f.Type.String(),
			Length:        f.Length,
			DecimalCount:  f.DecimalCount,
			WorkAreaID:    f.WorkAreaID,
			ProductionMDX: f.ProductionMDX,
		})
	}
	return info
}

func newInfoCmd(opts *tableOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Print the header and field definitions of tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.readerConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			// every table gets its own reader, so headers can be parsed side by side
			infos := make([]tableInfo, len(args))
			var g errgroup.Group
			g.SetLimit(maxConcurrentOpens)
			for i, file := range args {
				i, file := i, file
				g.Go(func() error {
					reader, err := openTable(file, cfg)
					if err != nil {
						return err
					}
					defer reader.Close()
					infos[i] = newTableInfo(file, reader.Metadata())
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputFormat(cmd, opts) == "json" {
				return printJSON(out, infos)
			}
			for i, info := range infos {
				if i > 0 {
					if _, err := fmt.Fprintln(out); err != nil {
						return err
					}
				}
				if err := printTableInfo(out, info); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// printTableInfo writes the header summary and the field table of one file.
func printTableInfo(out io.Writer, info tableInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\n", info.File)
	fmt.Fprintf(w, "  version:\t%d\n", info.Version)
	fmt.Fprintf(w, "  last updated:\t%s\n", info.LastUpdated)
	fmt.Fprintf(w, "  records:\t%d\n", info.RecordCount)
	fmt.Fprintf(w, "  header length:\t%d\n", info.HeaderLength)
	fmt.Fprintf(w, "  record length:\t%d\n", info.RecordLength)
	fmt.Fprintf(w, "  language:\t0x%02X\n", info.LanguageDriverID)
	fmt.Fprintf(w, "  flags:\tincomplete=%t encrypted=%t mdx=%t\n",
		info.IncompleteTransaction, info.Encrypted, info.ProductionMDX)
	if err := w.Flush(); err != nil {
		return err
	}

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tTYPE\tLENGTH\tDECIMALS")
	for _, f := range info.Fields {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%d\n", f.Name, f.Type, f.Length, f.DecimalCount)
	}
	return w.Flush()
}
