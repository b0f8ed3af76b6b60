package output

import (
	"fmt"
	"strings"

	"github.com/sourcegrep/sourcegrep/api/schemas"
)

// ANSI escapes for finding rendering. Renderers receive an explicit colorize
// flag; nothing here consults the terminal.
const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	// breakLineWidth is the display width separators and truncation markers
	// are fitted to.
	breakLineWidth = 80
	breakLineChar  = "-"

	// maxLinesFlagName is surfaced in the truncation marker so users know
	// which option raises the limit.
	maxLinesFlagName = "--max-lines-per-finding"
)

var breakLine = strings.Repeat(breakLineChar, breakLineWidth)

// colorLine emboldens the matched span of one source line. lineNumber is the
// 1-based number of this line; the span runs (startLine, startCol) through
// (endLine, endCol), columns 1-based. Offsets are clamped so malformed
// engine positions never slice out of range.
func colorLine(line string, lineNumber, startLine, startCol, endLine, endCol int) string {
	start := startCol
	if lineNumber > startLine {
		start = 0
	}
	start = max(start-1, 0)

	end := len(line) + 2
	if lineNumber >= endLine {
		end = endCol
	}
	end = max(end-1, 0)

	start = min(start, len(line))
	// The bold span includes the end column itself.
	hi := min(end+1, len(line))
	if hi < start {
		hi = start
	}
	return line[:start] + ansiBold + line[start:hi] + ansiReset + line[hi:]
}

// renderMatchLines produces the display lines for one finding: the matched
// source (fix-applied variant preferred), optionally truncated to maxLines
// with a centered hidden-count marker, optionally followed by a separator
// when another finding in the same file comes next. maxLines == 1 is
// single-line mode and suppresses both marker and separator; maxLines <= 0
// means unlimited.
func renderMatchLines(m *schemas.RuleMatch, colorize bool, maxLines int, showSeparator bool) []string {
	if m.Path == "" {
		return nil
	}

	lines := m.DisplayLines()
	trimmed := 0
	if maxLines > 0 && len(lines) > maxLines {
		trimmed = len(lines) - maxLines
		lines = lines[:maxLines]
	}

	out := make([]string, 0, len(lines)+1)
	for i, line := range lines {
		line = strings.TrimRight(line, " \t\r\n")
		if m.Start.Line == 0 {
			out = append(out, line)
			continue
		}
		number := fmt.Sprintf("%d", m.Start.Line+i)
		if colorize {
			line = colorLine(line, m.Start.Line+i, m.Start.Line, m.Start.Col, m.End.Line, m.End.Col)
			number = ansiGreen + number + ansiReset
		}
		out = append(out, number+":"+line)
	}

	if maxLines == 1 {
		return out
	}
	if trimmed > 0 {
		marker := fmt.Sprintf(" [hid %d additional lines, adjust with %s] ", trimmed, maxLinesFlagName)
		out = append(out, center(marker, breakLineWidth, breakLineChar))
	} else if showSeparator {
		out = append(out, breakLine)
	}
	return out
}

// center pads s on both sides with fill to the given width; when the padding
// is odd the extra fill character goes on the right.
func center(s string, width int, fill string) string {
	gap := width - len(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(fill, left) + s + strings.Repeat(fill, gap-left)
}
