// Package lua runs user filter scripts with gopher-lua.
//
// A script defines a global function
//
//	function filter(options, query) ... end
//
// where options is an array of strings (text candidates) and tables (record
// candidates). It returns an array whose entries are 1-based option indices,
// option strings, or the option tables themselves.
package lua

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	glua "github.com/yuin/gopher-lua"

	"github.com/drake/pick/candidate"
	"github.com/drake/pick/filter"
)

// ErrNoFilter is returned when the loaded scripts define no filter function.
var ErrNoFilter = errors.New("lua: no global filter function")

const regexCacheSize = 100

// Engine wraps a Lua VM. gopher-lua states are not goroutine-safe, so every
// call into the VM holds mu.
type Engine struct {
	mu         sync.Mutex
	L          *glua.LState
	regexCache *lru.Cache[string, *regexp.Regexp]
	pickTable  *glua.LTable
	logger     *log.Logger
}

// NewEngine creates an Engine with a fresh VM. A nil logger discards
// script log output.
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &Engine{logger: logger}
	e.Init()
	return e
}

// Load creates an Engine and runs the script at path.
func Load(path string, logger *log.Logger) (*Engine, error) {
	e := NewEngine(logger)
	if err := e.DoFile(path); err != nil {
		e.Close()
		return nil, fmt.Errorf("load filter script: %w", err)
	}
	return e, nil
}

// Init (re)creates the VM and registers the pick API. Scripts loaded
// before are forgotten.
func (e *Engine) Init() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.L != nil {
		e.L.Close()
	}
	e.L = glua.NewState()

	cache, _ := lru.New[string, *regexp.Regexp](regexCacheSize)
	e.regexCache = cache

	e.pickTable = e.L.NewTable()
	e.L.SetGlobal("pick", e.pickTable)
	e.registerHelperFuncs()
	e.registerRegexFuncs()
}

// Close releases the VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.L != nil {
		e.L.Close()
		e.L = nil
	}
}

// DoString executes a raw string of Lua code. The name is used in stack
// traces.
func (e *Engine) DoString(name, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, err := e.L.Load(strings.NewReader(code), name)
	if err != nil {
		return err
	}
	e.L.Push(fn)
	return e.L.PCall(0, 0, nil)
}

// DoFile executes a Lua file, letting it require modules next to itself.
func (e *Engine) DoFile(path string) error {
	absPath, err := filepath.Abs(expandTilde(path))
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pkg := e.L.GetGlobal("package").(*glua.LTable)
	oldPath := e.L.GetField(pkg, "path").String()
	e.L.SetField(pkg, "path", glua.LString(filepath.Dir(absPath)+"/?.lua;"+oldPath))
	defer e.L.SetField(pkg, "path", glua.LString(oldPath))

	return e.L.DoFile(absPath)
}

// Filterer exposes the script's filter function as a filter.Filterer.
func (e *Engine) Filterer() filter.Filterer {
	return e.Filter
}

// Filter calls the script's global filter function. Cancelling ctx aborts a
// running script.
func (e *Engine) Filter(ctx context.Context, options []candidate.Candidate, query string) ([]candidate.Candidate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.L == nil {
		return nil, errors.New("lua: engine closed")
	}
	fn, ok := e.L.GetGlobal("filter").(*glua.LFunction)
	if !ok {
		return nil, ErrNoFilter
	}

	args := e.L.CreateTable(len(options), 0)
	tables := make(map[*glua.LTable]int)
	texts := make(map[string]int)
	for i, c := range options {
		v := e.toLua(c)
		args.RawSetInt(i+1, v)
		switch v := v.(type) {
		case *glua.LTable:
			tables[v] = i
		case glua.LString:
			if _, dup := texts[string(v)]; !dup {
				texts[string(v)] = i
			}
		}
	}

	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	if err := e.L.CallByParam(glua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args, glua.LString(query)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("lua filter: %w", err)
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)

	result, ok := ret.(*glua.LTable)
	if !ok {
		return nil, fmt.Errorf("lua filter: returned %s, want table", ret.Type())
	}

	out := make([]candidate.Candidate, 0, result.Len())
	seen := make(map[int]bool)
	var convErr error
	result.ForEach(func(_, v glua.LValue) {
		if convErr != nil {
			return
		}
		idx := -1
		switch v := v.(type) {
		case glua.LNumber:
			idx = int(v) - 1
			if idx < 0 || idx >= len(options) {
				convErr = fmt.Errorf("lua filter: index %d out of range", int(v))
				return
			}
		case glua.LString:
			i, found := texts[string(v)]
			if !found {
				convErr = fmt.Errorf("lua filter: %q is not an option", string(v))
				return
			}
			idx = i
		case *glua.LTable:
			i, found := tables[v]
			if !found {
				convErr = errors.New("lua filter: returned a table that is not an option")
				return
			}
			idx = i
		default:
			convErr = fmt.Errorf("lua filter: unexpected %s in result", v.Type())
			return
		}
		if !seen[idx] {
			seen[idx] = true
			out = append(out, options[idx])
		}
	})
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}

// toLua converts a candidate: text becomes a string, a record a table of
// its fields.
func (e *Engine) toLua(c candidate.Candidate) glua.LValue {
	if s, ok := c.Text(); ok {
		return glua.LString(s)
	}
	tbl := e.L.NewTable()
	for _, f := range c.Fields() {
		switch v := f.Value.(type) {
		case nil:
		case string:
			tbl.RawSetString(f.Name, glua.LString(v))
		case bool:
			tbl.RawSetString(f.Name, glua.LBool(v))
		default:
			tbl.RawSetString(f.Name, toNumber(v))
		}
	}
	return tbl
}

func toNumber(v any) glua.LValue {
	var n float64
	if _, err := fmt.Sscan(candidate.FormatValue(v), &n); err != nil {
		return glua.LString(candidate.FormatValue(v))
	}
	return glua.LNumber(n)
}

// expandTilde expands ~ to home directory.
func expandTilde(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
