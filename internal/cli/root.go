package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &tableOptions{}

	rootCmd := &cobra.Command{
		Use:           "dbfcat",
		Short:         "Inspect dBASE tables",
		Long:          "Command-line reader for dBASE III/IV (.dbf) tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return resolveOptions(cmd.Flags(), opts)
		},
	}
	bindTableFlags(rootCmd.PersistentFlags(), opts)

	rootCmd.AddCommand(newInfoCmd(opts))
	rootCmd.AddCommand(newRowsCmd(opts))
	rootCmd.AddCommand(newSumCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))
	return rootCmd
}

func bindTableFlags(fs *pflag.FlagSet, opts *tableOptions) {
	fs.StringVar(&opts.configPath, "config", "", "Config file (default ~/.dbfcat/config.yaml)")
	fs.StringVar(&opts.dialect, "dialect", "", "Accepted versions: dbase (3 and 4) or xbase3 (3 only)")
	fs.StringVar(&opts.century, "century", "", "Two-digit year rule: pivot79 or 1900")
	fs.StringVar(&opts.encoding, "encoding", "", "Charset of character fields (default raw ASCII)")
	fs.StringVarP(&opts.output, "output", "o", "", "Output format (table, json)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Log decoding details to stderr")
}

// resolveOptions applies precedence: flag > env > config file > default.
func resolveOptions(fs *pflag.FlagSet, opts *tableOptions) error {
	path := opts.configPath
	if !fs.Changed("config") {
		if v := os.Getenv("DBFCAT_CONFIG"); v != "" {
			path = v
		} else {
			path = ConfigPath()
		}
	}
	cfg := &UserConfig{}
	if path != "" {
		loaded, err := LoadUserConfig(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist) && !fs.Changed("config"):
			// Config file is optional
		default:
			return err
		}
	}

	for _, s := range []struct {
		flag   string
		env    string
		file   string
		target *string
	}{
		{"dialect", "DBFCAT_DIALECT", cfg.Dialect, &opts.dialect},
		{"century", "DBFCAT_CENTURY", cfg.Century, &opts.century},
		{"encoding", "DBFCAT_ENCODING", cfg.Encoding, &opts.encoding},
		{"output", "DBFCAT_OUTPUT", cfg.Output, &opts.output},
	} {
		if fs.Changed(s.flag) {
			continue
		}
		if v := os.Getenv(s.env); v != "" {
			*s.target = v
		} else if s.file != "" {
			*s.target = s.file
		}
	}
	return validateOutputFormat(opts.output)
}
