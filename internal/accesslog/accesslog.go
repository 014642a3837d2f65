// Package accesslog extracts pool/release/status records from proxy access
// log lines.
//
// DESIGN: A line is meaningful when it carries three tokens, anywhere in the
// line: pool=<token>, release=<token> and upstream_status=<status list>.
// Everything else on the line is ignored. Lines missing any token are not
// errors - the watcher skips them silently.
//
// The upstream_status value may list several codes when nginx retried the
// request against more than one upstream ("502, 200"). Only the FIRST code
// counts. Changing that rule shifts every error-rate reading, so it is part
// of the wire contract.
package accesslog

import (
	"regexp"
	"strconv"
	"strings"
)

// Record is one parsed access log entry.
type Record struct {
	Pool    string
	Release string
	Status  int
}

// Format selects how raw lines are interpreted.
type Format string

const (
	// FormatKV scans free-form text for key=value tokens.
	FormatKV Format = "kv"
	// FormatJSON reads one JSON object per line.
	FormatJSON Format = "json"
	// FormatAuto tries JSON for lines that look like objects, then key=value.
	FormatAuto Format = "auto"
)

var (
	poolPattern    = regexp.MustCompile(`(?:^|\s)pool=(\S+)`)
	releasePattern = regexp.MustCompile(`(?:^|\s)release=(\S+)`)
	statusPattern  = regexp.MustCompile(`(?:^|\s)upstream_status=([0-9][0-9, ]*)`)
)

// Parser turns raw lines into Records for a fixed input format.
type Parser struct {
	format Format
}

// NewParser creates a parser for the given format. Unknown formats fall back
// to FormatAuto.
func NewParser(format Format) *Parser {
	switch format {
	case FormatKV, FormatJSON, FormatAuto:
	default:
		format = FormatAuto
	}
	return &Parser{format: format}
}

// Format returns the configured input format.
func (p *Parser) Format() Format { return p.format }

// Parse extracts a Record from one raw line. The second return value is false
// when the line carries no complete record.
func (p *Parser) Parse(line string) (Record, bool) {
	switch p.format {
	case FormatKV:
		return ParseKV(line)
	case FormatJSON:
		return ParseJSON(line)
	default:
		if strings.HasPrefix(strings.TrimSpace(line), "{") {
			return ParseJSON(line)
		}
		return ParseKV(line)
	}
}

// ParseKV extracts a Record from a free-form key=value line. Pure function:
// no side effects, no errors - a line that does not match yields (zero, false).
func ParseKV(line string) (Record, bool) {
	pool := poolPattern.FindStringSubmatch(line)
	if pool == nil {
		return Record{}, false
	}
	release := releasePattern.FindStringSubmatch(line)
	if release == nil {
		return Record{}, false
	}
	statusList := statusPattern.FindStringSubmatch(line)
	if statusList == nil {
		return Record{}, false
	}
	status, ok := firstStatus(statusList[1])
	if !ok {
		return Record{}, false
	}
	return Record{Pool: pool[1], Release: release[1], Status: status}, true
}

// firstStatus resolves a comma/space separated status list to its first code.
func firstStatus(list string) (int, bool) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return 0, false
	}
	status, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return status, true
}
