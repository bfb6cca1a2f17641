// Package cmd provides the command-line interface of csim.
package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/csim/config"
)

// flagValues holds the raw flag values. They only replace configuration
// values when set on the command line.
type flagValues struct {
	configFile  string
	setBits     int
	ways        int
	blockBits   int
	traceFile   string
	verbose     bool
	resultsFile string
	recordDB    string
	monitor     bool
	monitorPort int
	openBrowser bool
	logLevel    string
}

func newRootCmd() *cobra.Command {
	flags := &flagValues{}

	rootCmd := &cobra.Command{
		Use:   "csim [-hv] -s <num> -E <num> -b <num> -t <file>",
		Short: "Simulate a set-associative cache with LRU replacement on a memory trace",
		Long: `csim replays a valgrind lackey memory trace through a ` +
			`set-associative cache and reports hits, misses, and evictions.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			setUpLogging(cfg.LogLevel, cmd.ErrOrStderr())

			_, err = run(cfg, cmd.InOrStdin(), cmd.OutOrStdout())

			return err
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&flags.configFile, "config", "", "YAML file with the run configuration")
	f.IntVarP(&flags.setBits, "set-bits", "s", 0, "Number of set index bits (S = 2^s is the number of sets)")
	f.IntVarP(&flags.ways, "ways", "E", 1, "Associativity (number of lines per set)")
	f.IntVarP(&flags.blockBits, "block-bits", "b", 0, "Number of block bits (B = 2^b is the block size)")
	f.StringVarP(&flags.traceFile, "trace", "t", "", "Trace file to replay, - for stdin")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Print the outcome of every trace record")
	f.StringVar(&flags.resultsFile, "results", config.DefaultResultsFile, "File the counters are written to, empty to skip")
	f.StringVar(&flags.recordDB, "record-db", "", "Record every access into <name>.sqlite3")
	f.BoolVar(&flags.monitor, "monitor", false, "Serve the progress of the run over HTTP")
	f.IntVar(&flags.monitorPort, "monitor-port", 0, "Port of the monitoring server, 0 for a random one")
	f.BoolVar(&flags.openBrowser, "open-browser", false, "Open the monitoring server in a browser")
	f.StringVar(&flags.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(newInspectCmd())

	return rootCmd
}

// loadConfig layers the defaults, the config file, the environment, and the
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command, flags *flagValues) (config.Config, error) {
	cfg := config.Default()

	if flags.configFile != "" {
		if err := cfg.LoadFile(flags.configFile); err != nil {
			return cfg, err
		}
	}

	if err := cfg.LoadEnv(".env"); err != nil {
		return cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("set-bits") {
		cfg.Cache.SetBits = flags.setBits
	}
	if changed("ways") {
		cfg.Cache.Ways = flags.ways
	}
	if changed("block-bits") {
		cfg.Cache.BlockBits = flags.blockBits
	}
	if changed("trace") {
		cfg.TraceFile = flags.traceFile
	}
	if changed("verbose") {
		cfg.Verbose = flags.verbose
	}
	if changed("results") {
		cfg.ResultsFile = flags.resultsFile
	}
	if changed("record-db") {
		cfg.RecordDB = flags.recordDB
	}
	if changed("monitor") {
		cfg.Monitor.Enabled = flags.monitor
	}
	if changed("monitor-port") {
		cfg.Monitor.Port = flags.monitorPort
	}
	if changed("open-browser") {
		cfg.Monitor.OpenBrowser = flags.openBrowser
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func setUpLogging(level string, out io.Writer) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", level)
	}

	logrus.SetLevel(lvl)
	logrus.SetOutput(out)
}

// Execute runs the root command and exits. Exit handlers, such as the flush
// of a data recorder, run before the process ends.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Error(err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
