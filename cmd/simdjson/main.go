// Command simdjson parses, validates and minifies JSON and NDJSON with the
// tape parser.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	simdjson "github.com/biggeezerdevelopment/tapejson"
)

var (
	version  = "dev"
	revision = "none"
)

// Globals are the options every command shares.
type Globals struct {
	Version        kong.VersionFlag `kong:"short='v',help='Show version and exit.'"`
	LogLevel       string           `kong:"short='l',default='info',enum='debug,info,warn,error',help='Log level',env='SIMDJSON_LOG_LEVEL'"`
	LogFormat      string           `kong:"default='text',enum='text,json',help='Log format',env='SIMDJSON_LOG_FORMAT'"`
	Implementation string           `kong:"short='i',optional,help='Force a backend: avx512, avx2, neon, sse42 or scalar',env='SIMDJSON_IMPLEMENTATION'"`
	MaxDepth       int              `kong:"default='1024',help='Maximum nesting depth',env='SIMDJSON_MAX_DEPTH'"`
	BatchSize      int              `kong:"default='1048576',help='First window size when streaming NDJSON',env='SIMDJSON_BATCH_SIZE'"`
	Encoding       string           `kong:"default='auto',enum='auto,utf8,utf16le,utf16be',help='Input text encoding',env='SIMDJSON_ENCODING'"`
	Profile        string           `kong:"optional,type='path',help='Write an fgprof profile to this file',env='SIMDJSON_PROFILE'"`

	out    io.Writer
	logger *slog.Logger
}

// CLI represents command line options and configuration file values
var CLI struct {
	Globals Globals `kong:"embed"`

	Parse    ParseCmd    `kong:"cmd,help='Parse documents and print statistics or values.'"`
	Minify   MinifyCmd   `kong:"cmd,help='Remove insignificant whitespace.'"`
	Validate ValidateCmd `kong:"cmd,help='Check that files hold one well-formed document each.'"`
	NDJSON   NDJSONCmd   `kong:"cmd,name='ndjson',help='Stream concatenated or newline delimited documents.'"`
	Bench    BenchCmd    `kong:"cmd,help='Measure parse throughput per backend.'"`
	Info     InfoCmd     `kong:"cmd,help='Show processor features and backends.'"`
}

// configPaths returns the YAML configuration files looked up in the working
// and home directories.
func configPaths(logger *slog.Logger) []string {
	var paths []string
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, ".simdjson.yaml"))
	} else {
		logger.Warn("failed to get working directory. ignoring config file in working directory")
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".simdjson.yaml"))
	} else {
		logger.Warn("failed to get user home directory. ignoring config file in user home directory")
	}
	return paths
}

// loadConfig parses command line arguments and config files.
func loadConfig(args []string, logger *slog.Logger) (*kong.Context, error) {
	parser, err := kong.New(&CLI,
		kong.Name("simdjson"),
		kong.Description("A two-stage JSON parser: structural indexing followed by tape building."),
		kong.Configuration(yamlLoader, configPaths(logger)...),
		kong.Vars{"version": fmt.Sprintf("%s (%s)", version, revision)},
		kong.UsageOnError(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build command line parser: %w", err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse arguments: %w", err)
	}
	return ctx, nil
}

func main() {
	ctx, err := loadConfig(os.Args[1:], slog.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	g := &CLI.Globals
	g.out = os.Stdout
	g.logger = newLogger(os.Stderr, g.LogLevel, g.LogFormat)
	simdjson.SetLogger(g.logger)
	g.logger.Debug("configuration", "globals", fmt.Sprintf("%+v", *g))

	stop, err := startProfile(g.Profile)
	if err != nil {
		g.logger.Warn("failed to start profiling", "error", err)
	}
	err = ctx.Run(g)
	if stopErr := stop(); stopErr != nil {
		g.logger.Warn("could not stop profiling", "error", stopErr)
	}
	ctx.FatalIfErrorf(err)
}

// options turns the shared flags into parser options.
func (g *Globals) options() ([]simdjson.Option, error) {
	opts := []simdjson.Option{
		simdjson.WithMaxDepth(g.MaxDepth),
		simdjson.WithBatchSize(g.BatchSize),
	}
	if g.logger != nil {
		opts = append(opts, simdjson.WithLogger(g.logger))
	}
	if g.Implementation != "" {
		t, err := simdjson.ParseTier(g.Implementation)
		if err != nil {
			return nil, err
		}
		opts = append(opts, simdjson.WithImplementation(t))
	}
	return opts, nil
}

func (g *Globals) newParser() (*simdjson.Parser, error) {
	opts, err := g.options()
	if err != nil {
		return nil, err
	}
	p, err := simdjson.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create parser: %w", err)
	}
	return p, nil
}

func (g *Globals) log() *slog.Logger {
	if g.logger == nil {
		g.logger = slog.New(slog.DiscardHandler)
	}
	return g.logger
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
