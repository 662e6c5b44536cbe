package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	dbf "github.com/Ulysses-Xu/dbfreader"
)

// UserConfig represents ~/.dbfcat/config.yaml.
type UserConfig struct {
	Dialect  string `yaml:"dialect,omitempty"`
	Century  string `yaml:"century,omitempty"`
	Encoding string `yaml:"encoding,omitempty"`
	Output   string `yaml:"output,omitempty"`
}

// ConfigPath returns the path to ~/.dbfcat/config.yaml.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dbfcat", "config.yaml")
}

// LoadUserConfig reads the YAML config at path.
func LoadUserConfig(path string) (*UserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// tableOptions are the resolved settings shared by every command.
type tableOptions struct {
	configPath string
	dialect    string
	century    string
	encoding   string
	output     string
	verbose    bool
}

func parseDialect(s string) (dbf.Dialect, error) {
	switch strings.ToLower(s) {
	case "", "dbase":
		return dbf.DialectDBase, nil
	case "xbase3":
		return dbf.DialectXbase3, nil
	default:
		return 0, fmt.Errorf("unsupported dialect %q: use 'dbase' or 'xbase3'", s)
	}
}

func parseCentury(s string) (dbf.CenturyRule, error) {
	switch strings.ToLower(s) {
	case "", "pivot79":
		return dbf.CenturyPivot79, nil
	case "1900":
		return dbf.Century1900, nil
	default:
		return 0, fmt.Errorf("unsupported century rule %q: use 'pivot79' or '1900'", s)
	}
}

// readerConfig turns the resolved options into a library config. Log lines
// go to stderr so they never mix with table output.
func (o *tableOptions) readerConfig(stderr io.Writer) (dbf.Config, error) {
	dialect, err := parseDialect(o.dialect)
	if err != nil {
		return dbf.Config{}, err
	}
	century, err := parseCentury(o.century)
	if err != nil {
		return dbf.Config{}, err
	}
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(logrus.WarnLevel)
	if o.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return dbf.Config{
		Dialect:  dialect,
		Century:  century,
		Encoding: o.encoding,
		Logger:   logger,
	}, nil
}
