package exposition

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// state is the parser's position within the current line.
type state int

const (
	stateExpectLine state = iota
	stateInHelp
	stateInType
	stateInSample
)

// parser carries the HELP/TYPE declarations seen so far. A fresh parser is
// used for every Parse call.
type parser struct {
	state state
	help  map[string]string
	types map[string]MetricType
	table Table
}

func newParser() *parser {
	return &parser{
		state: stateExpectLine,
		help:  make(map[string]string),
		types: make(map[string]MetricType),
		table: make(Table),
	}
}

// Parse parses exposition text into a Table. It never fails; malformed
// lines are skipped.
func Parse(text string) Table {
	p := newParser()
	for _, line := range strings.Split(text, "\n") {
		p.feed(line)
	}
	return p.table
}

// ParseReader parses exposition text from r. The only error returned is
// one produced by r itself; the table holds every line read before it.
func ParseReader(r io.Reader) (Table, error) {
	p := newParser()
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			p.feed(line)
		}
		if errors.Is(err, io.EOF) {
			return p.table, nil
		}
		if err != nil {
			return p.table, err
		}
	}
}

// feed runs one line through the state machine.
func (p *parser) feed(raw string) {
	line := strings.TrimSpace(raw)

	var rest string
	p.state, rest = classify(line)

	switch p.state {
	case stateInHelp:
		p.onHelp(rest)
	case stateInType:
		p.onType(rest)
	case stateInSample:
		p.onSample(line)
	}

	p.state = stateExpectLine
}

// classify decides which state a trimmed line enters. For HELP and TYPE
// lines it also returns the text after the keyword.
func classify(line string) (state, string) {
	if line == "" {
		return stateExpectLine, ""
	}
	if line[0] != '#' {
		return stateInSample, line
	}

	keyword, rest := cutSpace(strings.TrimSpace(line[1:]))
	switch keyword {
	case "HELP":
		return stateInHelp, rest
	case "TYPE":
		return stateInType, rest
	default:
		return stateExpectLine, ""
	}
}

func (p *parser) onHelp(rest string) {
	name, text := cutSpace(rest)
	if !validMetricName(name) {
		return
	}
	p.help[name] = unescapeHelp(text)
}

func (p *parser) onType(rest string) {
	name, typ := cutSpace(rest)
	if !validMetricName(name) {
		return
	}
	t, ok := ParseMetricType(strings.TrimSpace(typ))
	if !ok {
		return
	}
	p.types[name] = t
}

func (p *parser) onSample(line string) {
	cut := strings.LastIndexAny(line, " \t")
	if cut < 0 {
		return
	}
	valueText := line[cut+1:]
	metricPart := strings.TrimSpace(line[:cut])

	value, err := parseValue(valueText)
	if err != nil {
		return
	}

	name, labels, trailing, ok := splitMetric(metricPart)
	if !ok {
		return
	}

	// "name value timestamp": the last field was the timestamp.
	if trailing != "" {
		if _, err := strconv.ParseInt(valueText, 10, 64); err != nil {
			return
		}
		if value, err = parseValue(trailing); err != nil {
			return
		}
	}

	typ, ok := p.types[name]
	if !ok {
		typ = TypeGauge
	}

	p.table[name] = MetricSample{
		Name:   name,
		Help:   p.help[name],
		Type:   typ,
		Value:  value,
		Labels: labels,
	}
}

// splitMetric splits the metric part of a data line into its name and
// labels. Anything after the metric identity is returned as trailing.
func splitMetric(part string) (name string, labels Labels, trailing string, ok bool) {
	open := strings.IndexByte(part, '{')
	if open < 0 {
		name, trailing = cutSpace(part)
		return name, nil, trailing, validMetricName(name)
	}

	name = strings.TrimSpace(part[:open])
	if !validMetricName(name) {
		return "", nil, "", false
	}

	closeIdx, found := findLabelsEnd(part, open)
	if !found {
		return "", nil, "", false
	}

	labels = parseLabels(part[open+1 : closeIdx])
	trailing = strings.TrimSpace(part[closeIdx+1:])
	return name, labels, trailing, true
}

// findLabelsEnd returns the index of the '}' closing the label block that
// opens at open, ignoring braces inside quoted values.
func findLabelsEnd(s string, open int) (int, bool) {
	inQuote, escaped := false, false
	for i := open + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inQuote:
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case c == '}' && !inQuote:
			return i, true
		}
	}
	return 0, false
}

// parseLabels parses the inside of a label block. Segments without an '='
// or with an invalid name are dropped.
func parseLabels(block string) Labels {
	var labels Labels
	for _, seg := range splitLabelPairs(block) {
		seg = strings.TrimSpace(seg)
		eq := strings.IndexByte(seg, '=')
		if eq <= 0 {
			continue
		}
		name := strings.TrimSpace(seg[:eq])
		if !validLabelName(name) {
			continue
		}
		labels = append(labels, Label{
			Name:  name,
			Value: unquote(strings.TrimSpace(seg[eq+1:])),
		})
	}
	return labels
}

// splitLabelPairs splits on commas that are not inside quotes.
func splitLabelPairs(block string) []string {
	var (
		parts           []string
		start           int
		inQuote, escape bool
	)
	for i := 0; i < len(block); i++ {
		c := block[i]
		switch {
		case escape:
			escape = false
		case c == '\\' && inQuote:
			escape = true
		case c == '"':
			inQuote = !inQuote
		case c == ',' && !inQuote:
			parts = append(parts, block[start:i])
			start = i + 1
		}
	}
	return append(parts, block[start:])
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	if !strings.ContainsRune(v, '\\') {
		return v
	}
	return labelEscapes.Replace(v)
}

func unescapeHelp(text string) string {
	if !strings.ContainsRune(text, '\\') {
		return text
	}
	return helpEscapes.Replace(text)
}

var (
	labelEscapes = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n")
	helpEscapes  = strings.NewReplacer(`\\`, `\`, `\n`, "\n")
)

func parseValue(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// cutSpace splits s at its first run of whitespace.
func cutSpace(s string) (head, tail string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func validMetricName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlpha(c) || c == '_' || c == ':' || (i > 0 && isDigit(c)) {
			continue
		}
		return false
	}
	return true
}

func validLabelName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlpha(c) || c == '_' || (i > 0 && isDigit(c)) {
			continue
		}
		return false
	}
	return true
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
