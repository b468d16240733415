// SPDX-License-Identifier: EPL-2.0

// Command audstream plays a file or captures a microphone and reports the
// waveform level and spectrum of the windows it reads.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ik5/audstream/analysis"
	"github.com/ik5/audstream/consumer"
	"github.com/ik5/audstream/internal/app"
	"github.com/ik5/audstream/internal/config"
	"github.com/ik5/audstream/internal/logging"
	"github.com/ik5/audstream/source"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file (default: ~/.audstreamrc or /etc/audstream/config.yaml)")
	listDevs     = flag.Bool("list-devices", false, "List audio devices and their channel options")
	audioFile    = flag.String("file", "", "Play and analyse an audio file (wav, aiff, mp3, ogg)")
	device       = flag.Int("device", -1, "Capture device index, -1 for the default device")
	channel      = flag.Int("channel", 0, "Channel option of the capture device (see -list-devices)")
	outputDevice = flag.Int("output-device", -1, "Playback device index for -file, -1 for the default device")
	backend      = flag.String("backend", "", "Audio backend: "+strings.Join(config.Backends, ", "))
	record       = flag.String("record", "", "Write the microphone capture to this WAV file on exit")
	logLevel     = flag.String("log-level", "", "Log level: trace, debug, info, warn, error")
	logFormat    = flag.String("log-format", "", "Log format: console, json")
	logFile      = flag.Bool("log-file", false, "Also write logs to "+logging.DefaultLogPath())
	showVersion  = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("audstream v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("audstream failed")
		closeLog()
		os.Exit(1)
	}
}

// applyFlags lets explicitly set flags override the configuration file.
func applyFlags(cfg *config.Config) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	if set["file"] {
		cfg.Audio.File = *audioFile
	}
	if set["device"] {
		cfg.Audio.Device = *device
	}
	if set["channel"] {
		cfg.Audio.Channel = *channel
	}
	if set["output-device"] {
		cfg.Audio.OutputDevice = *outputDevice
	}
	if set["backend"] {
		cfg.Audio.Backend = *backend
	}
	if set["record"] {
		cfg.Audio.Record = *record
	}
	if set["log-level"] {
		cfg.Log.Level = *logLevel
	}
	if set["log-format"] {
		cfg.Log.Format = *logFormat
	}
}

func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	if !*logFile {
		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		return logger, func() {}, err
	}

	logger, closer, err := logging.Tee(cfg.Log.Level, cfg.Log.Format, logging.DefaultLogPath())
	if err != nil {
		return logger, func() {}, err
	}
	return logger, func() { _ = closer.Close() }, nil
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	drv, err := openDriver(cfg.Audio.Backend, logger)
	if err != nil {
		return err
	}
	defer drv.Close()

	if *listDevs {
		return listDevices(os.Stdout, drv)
	}

	session, err := app.NewSession(drv, cfg.SourceConfig(),
		app.WithLogger(logger),
		app.WithRecording(cfg.Audio.Record),
		app.WithSourceOptions(source.WithOutputDevice(cfg.Audio.OutputDevice)),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close session")
		}
	}()

	if cfg.Audio.File != "" {
		err = session.UseFile(cfg.Audio.File)
	} else {
		err = session.UseMicrophone(cfg.Audio.Device, cfg.Audio.Channel)
	}
	if err != nil {
		return err
	}

	wave, err := analysis.NewWaveform(cfg.Audio.WindowSize)
	if err != nil {
		return err
	}
	spec, err := analysis.NewSpectrum(cfg.Audio.WindowSize, cfg.Audio.SampleRate)
	if err != nil {
		return err
	}

	poller, err := consumer.New(session.Current, cfg.ConsumerOptions(), logger, wave, spec)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	report(ctx, cancel, session, wave, spec, cfg.Consumer.SpectrumBins, logger)

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// report logs the analysis once per second until ctx is done. It cancels
// the run when a file finished playing and every window was read, or when
// the source was dropped after a failure.
func report(ctx context.Context, cancel context.CancelFunc, session *app.Session,
	wave *analysis.Waveform, spec *analysis.Spectrum, bins int, logger zerolog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	bands := make([]float64, bins)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		src := session.Current()
		if src == nil {
			logger.Warn().Msg("no active source, stopping")
			cancel()
			return
		}

		spec.Bands(bands)
		loudest := 0
		for i, v := range bands {
			if v > bands[loudest] {
				loudest = i
			}
		}

		lvl := wave.Level()
		logger.Info().
			Float64("peak_db", analysis.Decibels(float64(lvl.Peak), -96)).
			Float64("rms_db", analysis.Decibels(float64(lvl.RMS), -96)).
			Int("loudest_band", loudest).
			Float64("loudest_band_db", analysis.Decibels(bands[loudest], -96)).
			Int("total", src.Total()).
			Int("index", src.Index()).
			Msg("levels")

		if drained(src) {
			logger.Info().Msg("playback finished")
			cancel()
			return
		}
	}
}

// drained reports that src will never produce another window.
func drained(src source.AudioSource) bool {
	return src.Complete() && src.Index()+src.Config().WindowSize > src.Total()
}
