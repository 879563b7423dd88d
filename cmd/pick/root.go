package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/drake/pick/autocomplete"
	"github.com/drake/pick/candidate"
	"github.com/drake/pick/config"
	"github.com/drake/pick/debug"
	"github.com/drake/pick/filter"
	"github.com/drake/pick/internal/loop"
	"github.com/drake/pick/lua"
	"github.com/drake/pick/selection"
	"github.com/drake/pick/ui"
)

var (
	errAborted     = errors.New("aborted")
	errNoSelection = errors.New("nothing selected")
)

type options struct {
	configPath string
	allowEmpty bool
	file       config.File
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pick [file]",
		Short: "Interactively filter lines and pick one or more of them",
		Long: `pick reads candidates, one per line, from a file or stdin and lets you
narrow them down as you type. Lines holding a flat JSON object are treated
as records. The selection is printed to stdout as JSON lines.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd.Flags()); err != nil {
				return err
			}
			return opts.run(cmd, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", config.Path(), "config file")
	f.BoolVar(&opts.allowEmpty, "allow-empty", false, "exit successfully when nothing is selected")
	f.String("label", "", "label shown above the input")
	f.String("description", "", "help text shown under the label")
	f.String("placeholder", "", "placeholder for the empty input")
	f.BoolP("multiple", "m", false, "select several candidates")
	f.Duration("debounce", 0, "quiet period before filtering")
	f.StringP("filter", "f", "", "filter strategy: substring, fuzzy, prefix, regex or lua")
	f.String("filter-script", "", "Lua script for --filter lua")
	f.Int("cache-size", 0, "memoize filter results (0 disables)")
	f.Bool("async", false, "run the filter off the UI loop")
	f.Bool("keep-query", false, "keep the query after each pick in multiple mode")
	f.Int("max-visible", 0, "number of visible rows")
	f.String("log-file", "", "write logs to this file")
	f.String("log-level", "", "debug, info, warn or error")

	return cmd
}

// load reads the config file and applies the flags the user set on top.
func (o *options) load(flags *pflag.FlagSet) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	if flags.Changed("label") {
		cfg.Label, _ = flags.GetString("label")
	}
	if flags.Changed("description") {
		cfg.Description, _ = flags.GetString("description")
	}
	if flags.Changed("placeholder") {
		cfg.Placeholder, _ = flags.GetString("placeholder")
	}
	if flags.Changed("multiple") {
		cfg.Multiple, _ = flags.GetBool("multiple")
	}
	if flags.Changed("debounce") {
		d, _ := flags.GetDuration("debounce")
		cfg.DebounceMS = int(d.Milliseconds())
	}
	if flags.Changed("filter") {
		cfg.Filter, _ = flags.GetString("filter")
	}
	if flags.Changed("filter-script") {
		cfg.FilterScript, _ = flags.GetString("filter-script")
	}
	if flags.Changed("cache-size") {
		cfg.CacheSize, _ = flags.GetInt("cache-size")
	}
	if flags.Changed("async") {
		cfg.Async, _ = flags.GetBool("async")
	}
	if flags.Changed("keep-query") {
		cfg.KeepQuery, _ = flags.GetBool("keep-query")
	}
	if flags.Changed("max-visible") {
		cfg.MaxVisible, _ = flags.GetInt("max-visible")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	o.file = cfg
	return nil
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger(o.file)
	if err != nil {
		return err
	}
	defer closeLog()

	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	options, err := readCandidates(in)
	if err != nil {
		return err
	}
	logger.Debug("candidates loaded", "count", len(options))

	f, closeFilter, err := buildFilter(o.file, logger)
	if err != nil {
		return err
	}
	defer closeFilter()

	l := loop.New(logger)
	ctrl, err := autocomplete.New(autocomplete.Config{
		Label:       o.file.Label,
		Description: o.file.Description,
		Placeholder: o.file.Placeholder,
		Multiple:    o.file.Multiple,
		Debounce:    o.file.Debounce(),
		Options:     options,
		Filter:      f,
		KeepQuery:   o.file.KeepQuery,
		Async:       o.file.Async,
		Logger:      logger,
		OnChange: func(v selection.Value) {
			logger.Debug("selection changed", "value", v)
		},
	}, l.Post)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	debug.NewMonitor(ctx, ctrl, l, logger).Start()

	model := ui.New(ctrl, l, ui.Options{MaxVisible: o.file.MaxVisible})
	final, err := tea.NewProgram(model,
		tea.WithInputTTY(),
		tea.WithOutput(cmd.ErrOrStderr()),
	).Run()
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	value, accepted := final.(ui.Model).Result()
	if !accepted {
		return errAborted
	}
	if value.IsEmpty() && !o.allowEmpty {
		return errNoSelection
	}
	return writeResult(cmd.OutOrStdout(), value)
}

// readCandidates parses one candidate per non-blank line.
func readCandidates(r io.Reader) ([]candidate.Candidate, error) {
	var out []candidate.Candidate
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if c, ok := candidate.Parse(sc.Text()); ok {
			out = append(out, c)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return out, nil
}

// buildFilter resolves the configured strategy. The returned func releases
// any Lua VM.
func buildFilter(cfg config.File, logger *log.Logger) (filter.Filterer, func(), error) {
	if cfg.Filter != config.FilterLua {
		f, err := filter.ByName(cfg.Filter, filter.Options{CacheSize: cfg.CacheSize})
		return f, func() {}, err
	}

	engine, err := lua.Load(cfg.FilterScript, logger)
	if err != nil {
		return nil, nil, err
	}
	f := engine.Filterer()
	if cfg.CacheSize > 0 {
		f = filter.NewCached(f, cfg.CacheSize)
	}
	return f, engine.Close, nil
}

// writeResult prints each selected candidate as one JSON line.
func writeResult(w io.Writer, v selection.Value) error {
	enc := json.NewEncoder(w)
	for _, c := range v.Items() {
		if err := enc.Encode(c); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(cfg config.File) (*log.Logger, func(), error) {
	if cfg.LogFile == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	level, err := cfg.Level()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	logger := log.NewWithOptions(f, log.Options{
		Level:           level,
		Prefix:          "pick",
		ReportTimestamp: true,
	})
	return logger, func() { f.Close() }, nil
}
