// Copyright (c) 2025 The propcheck Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package propcheck

import (
	"fmt"
	"io"
)

// HookResult tells the runner how to proceed after a hook callback
// returns.
type HookResult int

const (
	// HookContinue proceeds normally.
	HookContinue HookResult = iota
	// HookHalt stops the run immediately, reporting the current tally.
	HookHalt
	// HookRepeat re-runs the trial that just completed, and keeps doing
	// so every time this hook fires until the hook itself returns
	// something other than HookRepeat.
	HookRepeat
	// HookRepeatOnce re-runs the trial exactly once, then proceeds as if
	// HookContinue had been returned.
	HookRepeatOnce
)

// PreRunInfo is passed to Hooks.PreRun before the first trial.
type PreRunInfo struct {
	Name   string
	Trials int
	Seed   uint64
}

// PreGenArgsInfo is passed to Hooks.PreGenArgs before arguments are
// generated for one trial.
type PreGenArgsInfo struct {
	TrialID   int
	TrialSeed uint64
}

// PreTrialInfo is passed to Hooks.PreTrial after arguments are generated
// but before the property is called.
type PreTrialInfo struct {
	TrialID   int
	TrialSeed uint64
	Args      []any
}

// PostForkInfo is passed to Hooks.PostFork, which runs in the child
// process immediately after a fork-mode re-exec, before the property is
// invoked.
type PostForkInfo struct {
	TrialID   int
	TrialSeed uint64
}

// PostTrialInfo is passed to Hooks.PostTrial after a trial completes.
type PostTrialInfo struct {
	PropName    string
	TotalTrials int
	RunSeed     uint64
	TrialID     int
	TrialSeed   uint64
	Args        []any
	Result      trialCode
}

// PreShrinkInfo is passed to Hooks.PreShrink when a failing trial is
// about to enter the shrink loop.
type PreShrinkInfo struct {
	TrialID int
	Args    []any
}

// PostShrinkTrialInfo is passed to Hooks.PostShrinkTrial after each
// individual shrink candidate is tried.
type PostShrinkTrialInfo struct {
	TrialID   int
	Tactic    string
	Args      []any
	Result    trialCode
	Successes int
	Failures  int
}

// PostShrinkInfo is passed to Hooks.PostShrink once the shrink loop
// settles on a final, minimal counter-example.
type PostShrinkInfo struct {
	TrialID   int
	Successes int
	Failures  int
	Args      []any
}

// CounterExampleInfo is passed to Hooks.CounterExample with the final,
// fully shrunk (or unshrunk, if shrinking is disabled) failing input.
type CounterExampleInfo struct {
	PropName  string
	TrialID   int
	TrialSeed uint64
	Args      []any
}

// PostRunInfo is passed to Hooks.PostRun once the run concludes.
type PostRunInfo struct {
	Name   string
	Tally  Tally
	Code   Code
}

// HookFunc is the common shape of every hook callback: inspect info,
// optionally return an error to abort the run, and tell the runner how
// to proceed.
type HookFunc[T any] func(info T) (HookResult, error)

// Hooks is the full set of ten instrumentation points the run controller
// dispatches to. Every field is optional; a nil hook behaves as
// HookContinue with no side effect, except PostTrial, whose zero value is
// replaced by a default glyph-tally printer, and CounterExample, whose
// zero value is replaced by a default counter-example report.
type Hooks struct {
	PreRun          HookFunc[*PreRunInfo]
	PreGenArgs      HookFunc[*PreGenArgsInfo]
	PreTrial        HookFunc[*PreTrialInfo]
	PostFork        HookFunc[*PostForkInfo]
	PostTrial       HookFunc[*PostTrialInfo]
	PreShrink       HookFunc[*PreShrinkInfo]
	PostShrinkTrial HookFunc[*PostShrinkTrialInfo]
	PostShrink      HookFunc[*PostShrinkInfo]
	CounterExample  HookFunc[*CounterExampleInfo]
	PostRun         HookFunc[*PostRunInfo]

	// Output receives the default PostTrial printer's glyphs. When nil,
	// the glyphs go to Config.Output (itself defaulting to os.Stdout).
	Output io.Writer

	// ColumnWidth bounds the default PostTrial printer's line length
	// before it wraps. Zero selects defaultColumnWidth.
	ColumnWidth int
}

const defaultColumnWidth = 72

// printRunThreshold is how many consecutive identical outcomes print as
// individual glyphs before grouping kicks in.
const printRunThreshold = 100

// groupsBeforeEscalation is how many groups at one grouping unit print
// before the unit itself grows by groupEscalationFactor.
const groupsBeforeEscalation = 100

// groupEscalationFactor is how much a saturated grouping unit grows by.
const groupEscalationFactor = 10

// tallyPrinter accumulates the default PostTrial glyph stream: the first
// printRunThreshold consecutive identical outcomes print one glyph each;
// beyond that, trials accumulate silently until a full grouping unit (100
// trials, then 1000 once 100 such groups have printed, then 10000, and so
// on) completes, at which point one "(WORD x N)." token replaces the
// whole group. A run ending mid-group or changing symbol flushes whatever
// is still pending as a partial group. Columns wrap at ColumnWidth.
type tallyPrinter struct {
	w     io.Writer
	width int
	col   int

	active  bool
	sym     byte
	unit    int // current grouping unit size; 1 means print every trial
	pending int // trials counted toward the next glyph or group
	groups  int // groups emitted at the current unit, toward escalation
}

func newTallyPrinter(w io.Writer, width int) *tallyPrinter {
	if width <= 0 {
		width = defaultColumnWidth
	}
	return &tallyPrinter{w: w, width: width}
}

func glyphFor(c trialCode) byte {
	switch c {
	case trialOK:
		return '.'
	case trialFail:
		return 'F'
	case trialSkip:
		return 's'
	case trialDup:
		return 'd'
	case trialErr:
		return 'E'
	default:
		return '?'
	}
}

// wordFor names a glyph for the collapsed "(WORD x N)." group format.
func wordFor(sym byte) string {
	switch sym {
	case '.':
		return "PASS"
	case 'F':
		return "FAIL"
	case 's':
		return "SKIP"
	case 'd':
		return "DUP"
	case 'E':
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// push records one trial outcome, flushing the prior streak if the symbol
// changes, then either emitting a glyph directly or folding the trial
// into the current grouping unit.
func (p *tallyPrinter) push(c trialCode) {
	sym := glyphFor(c)
	if p.active && sym != p.sym {
		p.flush()
	}
	if !p.active {
		p.active = true
		p.sym = sym
		p.unit = 1
		p.pending = 0
		p.groups = 0
	}

	if p.unit == 1 {
		p.pending++
		if p.pending > printRunThreshold {
			p.unit = printRunThreshold
			p.pending = 1
			return
		}
		p.emitGlyph(sym)
		return
	}

	p.pending++
	if p.pending == p.unit {
		p.emitGroup(sym, p.unit)
		p.pending = 0
		p.groups++
		if p.groups == groupsBeforeEscalation {
			p.unit *= groupEscalationFactor
			p.groups = 0
		}
	}
}

// flush emits whatever is buffered toward an incomplete group (a
// completed streak with fewer than unit trials since the last group) and
// resets streak state, ready for a new symbol.
func (p *tallyPrinter) flush() {
	if !p.active {
		return
	}
	if p.unit > 1 && p.pending > 0 {
		p.emitGroup(p.sym, p.pending)
	}
	p.active = false
	p.sym = 0
	p.unit = 0
	p.pending = 0
	p.groups = 0
}

func (p *tallyPrinter) emitGlyph(sym byte) {
	p.emit(string(sym))
}

func (p *tallyPrinter) emitGroup(sym byte, n int) {
	p.emit(fmt.Sprintf("(%s x %d).", wordFor(sym), n))
}

func (p *tallyPrinter) emit(text string) {
	if p.col+len(text) > p.width {
		io.WriteString(p.w, "\n")
		p.col = 0
	}
	io.WriteString(p.w, text)
	p.col += len(text)
}

func (p *tallyPrinter) done() {
	p.flush()
	if p.col > 0 {
		io.WriteString(p.w, "\n")
		p.col = 0
	}
}
