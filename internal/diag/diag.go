// Package diag implements the diagnostic engine: coalesced multi-
// location messages rendered with source context, caret underlining
// and stack-trace style hints.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"volta/internal/opts"
	"volta/internal/source"
)

// Hint is one annotated location attached to a diagnostic. Lower
// priorities sort first among hints on the same line.
type Hint struct {
	Loc      source.Loc
	Text     string
	Priority int
}

// Diagnostic is one message under construction. Hints[0], when
// present, is the primary location.
type Diagnostic struct {
	Level  Level
	msg    strings.Builder
	hints  []Hint
	trace  []Hint
	color  bool
	source bool
}

// Consumer receives finished diagnostics instead of the renderer.
type Consumer func(*Diagnostic)

// HintFn is invoked on every new diagnostic to attach contextual
// notes.
type HintFn func(*Diagnostic)

var (
	consumer Consumer
	hintFn   HintFn
	nErrors  int
	registry = source.Default()
	exitFn   = os.Exit
)

// SetConsumer installs fn as the sink for all emitted diagnostics.
// Pass nil to restore the default renderer.
func SetConsumer(fn Consumer) { consumer = fn }

// SetHintFn installs a callback run on every new diagnostic.
func SetHintFn(fn HintFn) { hintFn = fn }

// SetRegistry points the engine at a file registry other than the
// process default.
func SetRegistry(r *source.Registry) { registry = r }

// ErrorCount returns the number of error-level diagnostics emitted.
func ErrorCount() int { return nErrors }

// ResetErrorCount clears the error counter.
func ResetErrorCount() { nErrors = 0 }

// New allocates a diagnostic. A valid loc seeds the primary hint.
func New(level Level, loc source.Loc) *Diagnostic {
	d := &Diagnostic{
		Level:  level,
		color:  colorTerminal() && consumer == nil,
		source: true,
	}

	if !loc.Invalid() {
		d.hints = append(d.hints, Hint{Loc: loc})
	}

	if hintFn != nil {
		hintFn(d)
	}

	return d
}

// Printf appends formatted text to the message.
func (d *Diagnostic) Printf(format string, args ...any) *Diagnostic {
	fmt.Fprintf(&d.msg, format, args...)
	return d
}

// Hint attaches text at loc. A second hint at the same location
// replaces the first one's text.
func (d *Diagnostic) Hint(loc source.Loc, format string, args ...any) *Diagnostic {
	text := fmt.Sprintf(format, args...)

	if !loc.Invalid() {
		for i := range d.hints {
			if d.hints[i].Loc == loc {
				d.hints[i].Text = text
				return d
			}
		}
	}

	d.hints = append(d.hints, Hint{
		Loc:      loc,
		Text:     text,
		Priority: -len(d.hints),
	})
	return d
}

// Trace appends a stack-trace entry. Trace entries render after the
// hints, oldest first.
func (d *Diagnostic) Trace(loc source.Loc, format string, args ...any) *Diagnostic {
	d.trace = append(d.trace, Hint{
		Loc:      loc,
		Text:     fmt.Sprintf(format, args...),
		Priority: len(d.trace),
	})
	return d
}

// ShowSource controls whether source lines are rendered.
func (d *Diagnostic) ShowSource(show bool) { d.source = show }

// Text returns the accumulated message.
func (d *Diagnostic) Text() string { return d.msg.String() }

// Loc returns the primary location, or an invalid location if the
// diagnostic has none.
func (d *Diagnostic) Loc() source.Loc {
	if len(d.hints) > 0 {
		return d.hints[0].Loc
	}
	return source.LocInvalid
}

// NumHints returns the number of secondary hints.
func (d *Diagnostic) NumHints() int {
	if len(d.hints) == 0 {
		return 0
	}
	return len(d.hints) - 1
}

// Hints returns the attached hints. The slice is owned by the
// diagnostic.
func (d *Diagnostic) Hints() []Hint { return d.hints }

// Emit renders the diagnostic to stderr and consumes it.
func (d *Diagnostic) Emit() {
	d.FEmit(os.Stderr)
}

// FEmit renders the diagnostic to w, updates the process error
// counter and consumes the diagnostic.
func (d *Diagnostic) FEmit(w io.Writer) {
	o := opts.Get()

	switch {
	case consumer != nil:
		consumer(d)

	case o.Style == opts.MessageCompact:
		if len(d.hints) > 0 {
			loc := d.hints[0].Loc
			if !loc.Invalid() {
				fmt.Fprintf(w, "%s:%d:%d: ", registry.Name(loc),
					loc.FirstLine, loc.FirstColumn+1)
			}
		}
		fmt.Fprintf(w, "%s: %s\n", d.Level, d.msg.String())

	default:
		d.render(w)
	}

	if d.Level >= Error || o.UnitTest {
		nErrors++
		if nErrors == o.ErrorLimit {
			FatalNoLoc("too many errors, giving up")
		}
	}

	d.hints = nil
	d.trace = nil

	if d.Level == Fatal {
		exitFn(1)
	}
}

// Emitf is shorthand for New + Printf + Emit.
func Emitf(level Level, loc source.Loc, format string, args ...any) {
	New(level, loc).Printf(format, args...).Emit()
}

// Warnf emits a warning at loc.
func Warnf(loc source.Loc, format string, args ...any) {
	Emitf(Warn, loc, format, args...)
}

// Errorf emits an error at loc.
func Errorf(loc source.Loc, format string, args ...any) {
	Emitf(Error, loc, format, args...)
}

// Fatalf emits a fatal diagnostic at loc and terminates the process.
func Fatalf(loc source.Loc, format string, args ...any) {
	Emitf(Fatal, loc, format, args...)
	exitFn(1)
}

// FatalNoLoc is Fatalf without a source location.
func FatalNoLoc(format string, args ...any) {
	Emitf(Fatal, source.LocInvalid, format, args...)
	exitFn(1)
}
