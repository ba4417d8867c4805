package diag

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"volta/internal/source"
)

var (
	noteStyle   = color.New(color.Reset)
	warnStyle   = color.New(color.FgYellow)
	errorStyle  = color.New(color.FgRed)
	gutterStyle = color.New(color.FgBlue)
	lineStyle   = color.New(color.FgCyan)
	caretOK     = color.New(color.FgGreen)
	caretBad    = color.New(color.FgRed)
)

func colorTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd())) && !color.NoColor
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil {
		return w
	}
	return 0
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (d *Diagnostic) styled(s *color.Color, text string) string {
	if !d.color {
		return text
	}
	return s.Sprint(text)
}

func (d *Diagnostic) render(w io.Writer) {
	var prefix string
	switch d.Level {
	case Note:
		prefix = d.styled(noteStyle, "** Note: ")
	case Warn:
		prefix = d.styled(warnStyle, "** Warning: ")
	case Error:
		prefix = d.styled(errorStyle, "** Error: ")
	case Fatal:
		prefix = d.styled(errorStyle, "** Fatal: ")
	}

	fmt.Fprint(w, prefix)
	paginate(w, d.msg.String(), runewidth.StringWidth(d.Level.String())+10)
	fmt.Fprintln(w)

	if len(d.hints) > 0 {
		d.renderHints(w)
	}
	if len(d.trace) > 0 {
		d.renderTrace(w)
	}
}

// paginate wraps str at the terminal width, indenting continuation
// lines by left columns.
func paginate(w io.Writer, str string, left int) {
	right := terminalWidth()
	if right == 0 || left+runewidth.StringWidth(str) < right {
		fmt.Fprint(w, str)
		return
	}

	col := left
	indent := strings.Repeat(" ", left)
	for i, word := range strings.Fields(str) {
		width := runewidth.StringWidth(word)
		if i > 0 {
			if col+width+1 >= right {
				fmt.Fprintf(w, "\n%s", indent)
				col = left
			} else {
				fmt.Fprint(w, " ")
				col++
			}
		}
		fmt.Fprint(w, word)
		col += width
	}
}

// expandLine renders one source line with tabs expanded to 8 columns
// and unprintable characters dropped.
func expandLine(line []byte) string {
	var b strings.Builder
	col := 0
	for _, c := range line {
		switch {
		case c == '\r':
		case c == '\t':
			for {
				b.WriteByte(' ')
				col++
				if col%8 == 0 {
					break
				}
			}
		case c >= ' ':
			b.WriteByte(c)
			col++
		}
	}
	return b.String()
}

func (d *Diagnostic) renderHints(w io.Writer) {
	loc0 := d.hints[0].Loc

	fwidth := 0
	var linebuf []byte
	needGap := false

	if loc0.File == source.FileInvalid {
		d.renderOtherFiles(w, loc0, fwidth, linebuf, needGap)
		return
	}

	sameFile, lineMax := 0, uint32(0)
	for i := range d.hints {
		if d.hints[i].Loc.File == loc0.File {
			sameFile++
			if d.hints[i].Loc.FirstLine > lineMax {
				lineMax = d.hints[i].Loc.FirstLine
			}
		}
	}

	sort.SliceStable(d.hints, func(i, j int) bool {
		a, b := &d.hints[i], &d.hints[j]
		if a.Loc.File != b.Loc.File {
			return a.Loc.File < b.Loc.File
		}
		if a.Loc.FirstLine != b.Loc.FirstLine {
			return a.Loc.FirstLine < b.Loc.FirstLine
		}
		return a.Priority < b.Priority
	})

	if d.source {
		linebuf = registry.Source(d.hints[0].Loc)
	}

	if linebuf == nil {
		fwidth = 1
	} else {
		for n := lineMax; n > 0; n /= 10 {
			fwidth++
		}
	}

	if linebuf == nil && len(d.trace) > 1 {
		d.renderOtherFiles(w, loc0, fwidth, linebuf, needGap)
		return
	}

	fmt.Fprintf(w, "\tFile %s, Line %d\n", registry.Name(loc0), loc0.FirstLine)

	if linebuf == nil {
		d.renderOtherFiles(w, loc0, fwidth, linebuf, needGap)
		return
	}

	fmt.Fprintf(w, "%*s %s\n", fwidth, "", d.styled(gutterStyle, " |"))
	needGap = true

	lineMin := d.hints[0].Loc.FirstLine
	p := linebuf

	for i, h := lineMin, 0; h < len(d.hints); i++ {
		hint := &d.hints[h]
		for hint.Loc.File != loc0.File {
			if h+1 == len(d.hints) {
				d.renderOtherFiles(w, loc0, fwidth, linebuf, needGap)
				return
			}
			h++
			hint = &d.hints[h]
		}

		if hint.Loc.FirstLine > i+2 {
			// Skip a run of uninteresting lines
			fmt.Fprintf(w, " %s\n", d.styled(gutterStyle, "..."))
			for ; i < hint.Loc.FirstLine; i++ {
				nl := bytes.IndexByte(p, '\n')
				if nl < 0 {
					return
				}
				p = p[nl+1:]
			}
		}

		nl := bytes.IndexByte(p, '\n')
		var raw []byte
		if nl < 0 {
			raw = p
			p = nil
		} else {
			raw = p[:nl]
			p = p[nl+1:]
		}

		gutter := fmt.Sprintf("%*d |", fwidth, i)
		fmt.Fprintf(w, " %s %s\n", d.styled(gutterStyle, gutter),
			d.styled(lineStyle, expandLine(raw)))

		if hint.Loc.FirstLine == i {
			fmt.Fprintf(w, "%*s %s ", fwidth, "", d.styled(gutterStyle, " |"))

			bad := sameFile > 1 && hint.Priority == 0 && d.Level >= Error
			style := caretOK
			if bad {
				style = caretBad
			}

			ncarets := 1
			if hint.Loc.LineDelta == 0 {
				ncarets = int(hint.Loc.ColumnDelta) + 1
			}

			fmt.Fprintf(w, "%*s", int(hint.Loc.FirstColumn), "")
			fmt.Fprint(w, d.styled(style, strings.Repeat("^", ncarets)))

			if hint.Text != "" {
				hintcol := fwidth + int(hint.Loc.FirstColumn) + ncarets + 4
				if hintcol+runewidth.StringWidth(hint.Text) >= maxi(terminalWidth(), 80) {
					fmt.Fprintf(w, "\n%*s %s %*s", fwidth, "",
						d.styled(gutterStyle, " |"), int(hint.Loc.FirstColumn), "")
				}
				fmt.Fprintf(w, " %s", d.styled(style, hint.Text))
			}
			fmt.Fprintln(w)

			// Only one hint is rendered per source line
			for h < len(d.hints) && d.hints[h].Loc.FirstLine == i {
				h++
			}
		}
	}

	d.renderOtherFiles(w, loc0, fwidth, linebuf, needGap)
}

// renderOtherFiles prints hints that did not share the primary
// hint's file as freestanding notes.
func (d *Diagnostic) renderOtherFiles(w io.Writer, loc0 source.Loc, fwidth int, linebuf []byte, needGap bool) {
	for i := range d.hints {
		hint := &d.hints[i]
		if hint.Loc.File == loc0.File && fwidth > 0 {
			continue // Rendered with the source lines above
		}
		if hint.Text == "" {
			continue
		}

		if needGap {
			fmt.Fprintf(w, "%*s %s\n", fwidth, "", d.styled(gutterStyle, " |"))
			needGap = false
		}

		col := fwidth
		fmt.Fprintf(w, "%*s", fwidth, "")
		if linebuf != nil {
			fmt.Fprintf(w, " %s ", d.styled(gutterStyle, " ="))
			col += 4
		}

		fmt.Fprint(w, "Note: ")
		paginate(w, hint.Text, col+6)
		fmt.Fprintln(w)

		if !hint.Loc.Invalid() {
			fmt.Fprintf(w, "%*s  \tFile %s, Line %d\n", fwidth, "",
				registry.Name(hint.Loc), hint.Loc.FirstLine)
		}
	}
}

func (d *Diagnostic) renderTrace(w io.Writer) {
	// A trace that just repeats the primary location adds nothing
	if len(d.trace) == 1 && len(d.hints) > 0 {
		h0, t0 := d.hints[0].Loc, d.trace[0].Loc
		if t0.File == h0.File && t0.FirstLine == h0.FirstLine {
			return
		}
	}

	for i := range d.trace {
		hint := &d.trace[i]
		fmt.Fprintf(w, "   %s\n", hint.Text)

		if !hint.Loc.Invalid() {
			fmt.Fprintf(w, "\tFile %s, Line %d\n",
				registry.Name(hint.Loc), hint.Loc.FirstLine)
		}
	}
}
