package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/squeaky/pkg/config"
	"github.com/Sumatoshi-tech/squeaky/pkg/observability"
	"github.com/Sumatoshi-tech/squeaky/pkg/report"
	"github.com/Sumatoshi-tech/squeaky/pkg/search"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
	"github.com/Sumatoshi-tech/squeaky/pkg/version"
)

const stylesheetGlob = "**/*.{css,scss}"

// ErrNoStylesheets is returned when the given paths hold no stylesheets.
var ErrNoStylesheets = errors.New("no stylesheets found")

// session is everything a command needs once flags and config are resolved.
type session struct {
	command  string
	cfg      *config.Config
	fs       afero.Fs
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.RunMetrics
	printer  *report.Printer
	searcher search.Searcher
	shutdown func(context.Context) error
}

// setup loads configuration, starts observability and picks the search
// backend for cmd.
func (o *globalOptions) setup(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	format, err := report.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}

	levelName := cfg.Logging.Level
	if cmd.Flags().Changed("log-level") {
		levelName = o.logLevel
	}

	level, err := config.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Command = cmd.Name()
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.MetricsTextfile = cfg.Telemetry.MetricsTextfile
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON || o.logJSON
	obsCfg.LogWriter = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewRunMetrics(providers.Meter, cmd.Name())
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	fsys := afero.NewOsFs()

	var searcher search.Searcher = search.NewGrepSearcher(providers.Logger)
	if cfg.Search.Backend == config.BackendWalk {
		searcher = search.NewWalkSearcher(fsys)
	}

	return &session{
		command:  cmd.Name(),
		cfg:      cfg,
		fs:       fsys,
		logger:   providers.Logger,
		tracer:   providers.Tracer,
		metrics:  metrics,
		printer:  report.NewPrinter(cmd.OutOrStdout(), format),
		searcher: searcher,
		shutdown: providers.Shutdown,
	}, nil
}

// close flushes telemetry. The run error wins over a shutdown error.
func (s *session) close(runErr error) error {
	shutdownErr := s.shutdown(context.Background())
	if runErr != nil {
		if shutdownErr != nil {
			s.logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}

		return runErr
	}

	return shutdownErr
}

// stylesheets expands args into stylesheet files. With no args the
// configured search directories are used.
func (s *session) stylesheets(args []string) ([]string, error) {
	paths := args
	if len(paths) == 0 {
		paths = s.cfg.Search.Paths()
	}

	files, err := search.Expand(s.fs, paths, stylesheetGlob)
	if err != nil {
		return nil, fmt.Errorf("expand stylesheets: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %v", ErrNoStylesheets, paths)
	}

	return files, nil
}

// eachSheet parses every file and calls fn inside a span, recording
// per-stylesheet metrics. The first error stops the run.
func (s *session) eachSheet(
	ctx context.Context, files []string, fn func(ctx context.Context, sheet *stylesheet.Sheet) error,
) error {
	for _, path := range files {
		err := s.processSheet(ctx, path, fn)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *session) processSheet(
	ctx context.Context, path string, fn func(ctx context.Context, sheet *stylesheet.Sheet) error,
) error {
	ctx, span := s.tracer.Start(ctx, "squeaky."+s.command+".stylesheet",
		trace.WithAttributes(attribute.String("stylesheet.path", path)))
	defer span.End()

	start := time.Now()

	err := s.runSheet(ctx, path, fn)

	s.metrics.RecordStylesheet(ctx, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}

func (s *session) runSheet(
	ctx context.Context, path string, fn func(ctx context.Context, sheet *stylesheet.Sheet) error,
) error {
	src, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return fmt.Errorf("read stylesheet: %w", err)
	}

	sheet, err := stylesheet.Parse(ctx, path, src)
	if err != nil {
		return err
	}

	for _, skipped := range sheet.Recovered {
		s.logger.WarnContext(ctx, "skipped unparseable syntax",
			"path", path, "line", skipped.Line, "column", skipped.Column, "text", skipped.Text)
	}

	s.logger.DebugContext(ctx, "processing stylesheet", "path", path, "rules", len(sheet.Rules()))

	return fn(ctx, sheet)
}

// writeFile replaces path with data, keeping its permissions.
func (s *session) writeFile(path string, data []byte) error {
	info, err := s.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	err = afero.WriteFile(s.fs, path, data, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
