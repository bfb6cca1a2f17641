// Package config holds the settings of a csim run and the ways to load them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/csim/mem/cache"
)

// EnvPrefix prefixes every environment variable that csim reads.
const EnvPrefix = "CSIM_"

// DefaultResultsFile is where the counters are written unless told otherwise.
const DefaultResultsFile = ".csim_results"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Monitor configures the monitoring server.
type Monitor struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// Config is everything a run needs.
type Config struct {
	Cache       cache.Config `yaml:"cache"`
	TraceFile   string       `yaml:"trace_file"`
	Verbose     bool         `yaml:"verbose"`
	ResultsFile string       `yaml:"results_file"`
	RecordDB    string       `yaml:"record_db"`
	Monitor     Monitor      `yaml:"monitor"`
	LogLevel    string       `yaml:"log_level"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Cache:       cache.Config{Ways: 1},
		ResultsFile: DefaultResultsFile,
		LogLevel:    "warn",
	}
}

// LoadFile overlays the fields present in a YAML file onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	return nil
}

// LoadEnv overlays CSIM_* variables onto c. Variables are taken from the
// given dotenv files that exist, and then from the process environment, which
// wins.
func (c *Config) LoadEnv(envFiles ...string) error {
	vars := map[string]string{}

	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}

		fileVars, err := godotenv.Read(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", f, err)
		}

		for k, v := range fileVars {
			vars[k] = v
		}
	}

	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			return v, true
		}

		v, ok := vars[EnvPrefix+name]

		return v, ok
	}

	return c.applyEnv(lookup)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		name  string
		field *int
	}{
		{"SET_BITS", &c.Cache.SetBits},
		{"WAYS", &c.Cache.Ways},
		{"BLOCK_BITS", &c.Cache.BlockBits},
		{"MONITOR_PORT", &c.Monitor.Port},
	}
	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, e.name, err)
		}

		*e.field = n
	}

	bools := []struct {
		name  string
		field *bool
	}{
		{"VERBOSE", &c.Verbose},
		{"MONITOR", &c.Monitor.Enabled},
		{"OPEN_BROWSER", &c.Monitor.OpenBrowser},
	}
	for _, e := range bools {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}

		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, e.name, err)
		}

		*e.field = b
	}

	strs := []struct {
		name  string
		field *string
	}{
		{"TRACE_FILE", &c.TraceFile},
		{"RESULTS_FILE", &c.ResultsFile},
		{"RECORD_DB", &c.RecordDB},
		{"LOG_LEVEL", &c.LogLevel},
	}
	for _, e := range strs {
		if v, ok := lookup(e.name); ok {
			*e.field = v
		}
	}

	return nil
}

// Validate reports the first problem that would stop a run.
func (c *Config) Validate() error {
	if c.TraceFile == "" {
		return fmt.Errorf("%w: no trace file given", ErrInvalid)
	}

	if err := c.Cache.Validate(); err != nil {
		return err
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		return fmt.Errorf("%w: monitor port %d out of range",
			ErrInvalid, c.Monitor.Port)
	}

	return nil
}
