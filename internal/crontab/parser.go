// Package crontab reads and writes the crontab task line format.
package crontab

import (
	"errors"
	"fmt"
	"strings"
)

// LineKind classifies a raw table line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineEnvironment
	LineTask
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineEnvironment:
		return "environment"
	case LineTask:
		return "task"
	}
	return fmt.Sprintf("LineKind(%d)", int(k))
}

// ParseOptions tunes the line parser.
type ParseOptions struct {
	// LenientLeadingDigits accepts a minute token such as "559" as its longest
	// valid suffix ("59"), the way tables written by older tooling were read.
	// By default such a token makes the line unparseable.
	LenientLeadingDigits bool
}

// Parser turns task lines into records. It holds no state besides its options
// and is safe for concurrent use.
type Parser struct {
	opts ParseOptions
}

// NewParser creates a parser with the given options
func NewParser(opts ParseOptions) *Parser {
	return &Parser{opts: opts}
}

var defaultParser = NewParser(ParseOptions{})

// ParseLine parses a single task line with the default options.
func ParseLine(line string) (*Record, error) {
	return defaultParser.ParseLine(line)
}

// ParseTable parses a whole table with the default options.
func ParseTable(text string) (*Table, []*LineError) {
	return defaultParser.ParseTable(text)
}

// Classify reports what kind of line raw is. Suspended task lines are task
// lines even though they start with '#'.
func Classify(raw string) LineKind {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return LineBlank
	case hasSuspendedMarker(s):
		return LineTask
	case s[0] == '#':
		return LineComment
	case isAssignment(s):
		return LineEnvironment
	}
	return LineTask
}

// ParseTable splits text into lines and parses every task line. Blank and
// comment lines are skipped. A line that fails to parse is reported with its
// 1-based number and never stops the remaining lines from loading.
func (p *Parser) ParseTable(text string) (*Table, []*LineError) {
	table := NewTable()
	var warnings []*LineError

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch Classify(line) {
		case LineBlank, LineComment:
			continue
		case LineEnvironment:
			warnings = append(warnings, &LineError{Line: i + 1, Raw: line, Err: ErrEnvironmentLine})
			continue
		}

		rec, err := p.ParseLine(line)
		if err != nil {
			var lineErr *LineError
			if !errors.As(err, &lineErr) {
				lineErr = &LineError{Raw: line, Err: err}
			}
			lineErr.Line = i + 1
			warnings = append(warnings, lineErr)
			continue
		}
		table.Add(rec)
	}

	return table, warnings
}

// ParseLine parses one task line in a single left to right pass:
// suspended marker, five schedule fields, then command and tail. Any failure
// is returned as a *LineError naming the cause.
func (p *Parser) ParseLine(line string) (*Record, error) {
	rec, err := p.parseLine(line)
	if err != nil {
		return nil, &LineError{Raw: line, Err: err}
	}
	return rec, nil
}

func (p *Parser) parseLine(line string) (*Record, error) {
	s := strings.Trim(line, " \t\r\n")
	rec := newRecord()

	if rest, ok := cutSuspendedMarker(s); ok {
		rec.suspended = true
		s = rest
	} else if s == "" || s[0] == '#' {
		return nil, ErrNotTaskLine
	} else if isAssignment(s) {
		return nil, ErrEnvironmentLine
	}

	rest := s
	for i, f := range Fields {
		rest = strings.TrimLeft(rest, " \t")
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			end = len(rest)
		}
		token := rest[:end]
		rest = rest[end:]

		if token == "" {
			return nil, fmt.Errorf("%w: found %d", ErrFieldCount, i)
		}
		if err := f.Validate(token); err != nil {
			if fixed, ok := p.lenient(f, i, token); ok {
				token = fixed
			} else if !looksLikeSchedule(token) {
				return nil, fmt.Errorf("%w: found %d before %q", ErrFieldCount, i, token)
			} else {
				return nil, err
			}
		}
		rec.SetField(f, token)
	}

	t := splitTail(rest)
	rec.command = strings.Trim(t.command, " \t")
	if rec.command == "" {
		return nil, ErrEmptyCommand
	}
	rec.outputLog = t.outputLog
	rec.errorLog = t.errorLog
	rec.comment = t.comment

	return rec, nil
}

func (p *Parser) lenient(f Field, index int, token string) (string, bool) {
	if !p.opts.LenientLeadingDigits || index != 0 {
		return "", false
	}
	return f.trimLeadingDigits(token)
}

// cutSuspendedMarker strips "#suspended", an optional ':' and the whitespace
// that follows. s must already be trimmed on the left.
func cutSuspendedMarker(s string) (string, bool) {
	rest, ok := strings.CutPrefix(s, "#suspended")
	if !ok {
		return s, false
	}
	if after, colon := strings.CutPrefix(rest, ":"); colon {
		return strings.TrimLeft(after, " \t"), true
	}
	if rest == "" || isSpace(rest[0]) {
		return strings.TrimLeft(rest, " \t"), true
	}
	return s, false
}

func hasSuspendedMarker(s string) bool {
	_, ok := cutSuspendedMarker(s)
	return ok
}

// isAssignment matches NAME=value lines such as MAILTO=ops@example.com.
func isAssignment(s string) bool {
	name, _, ok := strings.Cut(s, "=")
	if !ok {
		return false
	}
	name = strings.TrimRight(name, " \t")
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case isDigit(c) && i > 0:
		default:
			return false
		}
	}
	return true
}

type tail struct {
	command   string
	outputLog *string
	errorLog  *string
	comment   string
}

// splitTail separates the command from the redirects and comment that follow
// it. The command ends at the first whitespace-preceded '>', "2>" or '#'
// whose remainder reads as a complete tail; forms that do not (">>", "2>&1",
// a pipe after a redirect) stay part of the command. So "cmd > /o > /p"
// yields command "cmd > /o" and output "/p" rather than dropping "> /p".
func splitTail(s string) tail {
	for i := 0; i < len(s); i++ {
		if !isSpace(s[i]) {
			continue
		}
		j := i
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j == len(s) {
			break
		}
		if s[j] == '>' || s[j] == '#' || strings.HasPrefix(s[j:], "2>") {
			if t, ok := parseTail(s[i:]); ok {
				t.command = s[:i]
				return t
			}
		}
		i = j - 1
	}
	return tail{command: s}
}

// parseTail reads "[ > out][ 2> err][ #comment]" with the redirects in either
// order, each at most once. s starts with whitespace.
func parseTail(s string) (tail, bool) {
	var t tail
	rest := s
	for {
		trimmed := strings.TrimLeft(rest, " \t")
		if trimmed == "" {
			return t, true
		}
		if len(trimmed) == len(rest) {
			return t, false
		}

		switch {
		case trimmed[0] == '#':
			text := trimmed[1:]
			if strings.HasPrefix(text, "suspended") {
				return t, false
			}
			t.comment = text
			return t, true
		case strings.HasPrefix(trimmed, "2>"):
			if t.errorLog != nil {
				return t, false
			}
			path, after, ok := redirectTarget(trimmed[2:])
			if !ok {
				return t, false
			}
			t.errorLog = &path
			rest = after
		case trimmed[0] == '>':
			if t.outputLog != nil {
				return t, false
			}
			path, after, ok := redirectTarget(trimmed[1:])
			if !ok {
				return t, false
			}
			t.outputLog = &path
			rest = after
		default:
			return t, false
		}
	}
}

// redirectTarget reads the path after a redirect operator. The operator must
// be followed by whitespace; the path runs to the next whitespace.
func redirectTarget(s string) (path, rest string, ok bool) {
	if s == "" || !isSpace(s[0]) {
		return "", s, false
	}
	s = strings.TrimLeft(s, " \t")
	end := strings.IndexAny(s, " \t")
	if end < 0 {
		end = len(s)
	}
	if end == 0 {
		return "", s, false
	}
	return s[:end], s[end:], true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}
