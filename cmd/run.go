package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/csim/config"
	"github.com/sarchlab/csim/datarecording"
	"github.com/sarchlab/csim/mem/cache"
	"github.com/sarchlab/csim/mem/trace"
	"github.com/sarchlab/csim/monitoring"
	"github.com/sarchlab/csim/sim"
)

// run replays the configured trace through a new cache and reports the
// counters.
func run(cfg config.Config, stdin io.Reader, stdout io.Writer) (trace.Summary, error) {
	engine, err := cache.MakeBuilder().
		WithConfig(cfg.Cache).
		Build("Cache")
	if err != nil {
		return trace.Summary{}, err
	}
	defer engine.Release()

	input, total, closeInput, err := openTrace(cfg.TraceFile, stdin)
	if err != nil {
		return trace.Summary{}, err
	}
	defer closeInput()

	logrus.Infof("Simulating %s cache on %s", cfg.Cache, cfg.TraceFile)

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		engine.AcceptHook(sim.NewLogHook(nil))
	}

	replayer := trace.NewReplayer(engine)
	if cfg.Verbose {
		replayer.WithVerboseOutput(stdout)
	}

	var tracer *trace.DBTracer
	var recorder datarecording.DataRecorder
	if cfg.RecordDB != "" {
		recorder = datarecording.New(cfg.RecordDB)
		tracer = trace.NewDBTracer(recorder)
		engine.AcceptHook(tracer)
	}

	if cfg.Monitor.Enabled {
		stop, err := startMonitor(cfg, engine, replayer, total)
		if err != nil {
			return trace.Summary{}, err
		}
		defer stop()
	}

	summary, err := replayer.Replay(trace.NewReader(input))
	if err != nil {
		return summary, err
	}

	if tracer != nil {
		tracer.RecordSummary(engine.Name(), engine.Config(), summary.Stats)

		if err := recorder.Close(); err != nil {
			return summary, fmt.Errorf("closing recording: %w", err)
		}
	}

	logrus.Infof("Replayed %d references, skipped %d records",
		summary.References(), summary.Skipped)

	if err := trace.PrintSummary(stdout, summary.Stats); err != nil {
		return summary, err
	}

	if cfg.ResultsFile != "" {
		if err := trace.WriteResults(cfg.ResultsFile, summary.Stats); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// openTrace returns the trace input and its size in bytes, which is zero when
// the size is unknown.
func openTrace(path string, stdin io.Reader) (io.Reader, uint64, func(), error) {
	if path == "-" {
		return stdin, 0, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("opening trace: %w", err)
	}

	var size uint64
	if info, err := f.Stat(); err == nil {
		size = uint64(info.Size())
	}

	return f, size, func() { f.Close() }, nil
}

func startMonitor(
	cfg config.Config,
	engine *cache.Engine,
	replayer *trace.Replayer,
	total uint64,
) (func(), error) {
	monitor := monitoring.NewMonitor().WithPortNumber(cfg.Monitor.Port)

	tracker := monitoring.NewStatsTracker()
	engine.AcceptHook(tracker)
	monitor.RegisterStatsTracker(tracker)

	cacheConfig := engine.Config()
	monitor.RegisterConfig(&cacheConfig)

	bar := monitor.CreateProgressBar(cfg.TraceFile, total)
	replayer.WithProgress(func(_ trace.Record, bytesRead int64) {
		bar.SetFinished(uint64(bytesRead))
	})

	url, err := monitor.StartServer()
	if err != nil {
		return nil, err
	}

	if cfg.Monitor.OpenBrowser {
		if err := browser.OpenURL(url); err != nil {
			logrus.Warnf("Cannot open browser: %v", err)
		}
	}

	return func() {
		monitor.CompleteProgressBar(bar)

		if err := monitor.StopServer(); err != nil {
			logrus.Warnf("Stopping monitor: %v", err)
		}
	}, nil
}
