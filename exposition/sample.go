package exposition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// MetricType is the declared type of a metric family.
type MetricType string

const (
	TypeCounter   MetricType = "counter"
	TypeGauge     MetricType = "gauge"
	TypeHistogram MetricType = "histogram"
	TypeSummary   MetricType = "summary"
	TypeUntyped   MetricType = "untyped"
)

// ParseMetricType parses a "# TYPE" value. Unknown values report false.
func ParseMetricType(s string) (MetricType, bool) {
	switch t := MetricType(s); t {
	case TypeCounter, TypeGauge, TypeHistogram, TypeSummary, TypeUntyped:
		return t, true
	default:
		return "", false
	}
}

// Label is a single name/value pair attached to a sample.
type Label struct {
	Name  string
	Value string
}

// Labels is an ordered list of labels, in the order they appeared.
type Labels []Label

// Get returns the value of the named label.
func (l Labels) Get(name string) (string, bool) {
	for _, lbl := range l {
		if lbl.Name == name {
			return lbl.Value, true
		}
	}
	return "", false
}

// Len returns the number of labels.
func (l Labels) Len() int {
	return len(l)
}

// Map returns the labels as a map. It is never nil.
func (l Labels) Map() map[string]string {
	m := make(map[string]string, len(l))
	for _, lbl := range l {
		m[lbl.Name] = lbl.Value
	}
	return m
}

// MarshalJSON encodes the labels as a JSON object, preserving order.
func (l Labels) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, lbl := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(lbl.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(lbl.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into labels, preserving order.
func (l *Labels) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*l = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("exposition: labels must be a JSON object")
	}

	var out Labels
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("exposition: label %q: %w", key, err)
		}
		out = append(out, Label{Name: key, Value: value})
	}
	*l = out
	return nil
}

// MetricSample is one scalar sample recovered from exposition text.
type MetricSample struct {
	Name   string     `json:"name"`
	Help   string     `json:"help"`
	Type   MetricType `json:"type"`
	Value  float64    `json:"value"`
	Labels Labels     `json:"labels,omitempty"`
}

// MarshalJSON encodes non-finite values as the strings "NaN", "+Inf" and
// "-Inf", which encoding/json cannot represent as numbers.
func (s MetricSample) MarshalJSON() ([]byte, error) {
	type plain MetricSample
	if !math.IsNaN(s.Value) && !math.IsInf(s.Value, 0) {
		return json.Marshal(plain(s))
	}

	return json.Marshal(struct {
		Name   string     `json:"name"`
		Help   string     `json:"help"`
		Type   MetricType `json:"type"`
		Value  string     `json:"value"`
		Labels Labels     `json:"labels,omitempty"`
	}{s.Name, s.Help, s.Type, formatValue(s.Value), s.Labels})
}

func formatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

// Table maps bare metric names to their samples.
type Table map[string]MetricSample

// Get returns the sample for name.
func (t Table) Get(name string) (MetricSample, bool) {
	s, ok := t[name]
	return s, ok
}

// Value returns the value for name.
func (t Table) Value(name string) (float64, bool) {
	s, ok := t[name]
	return s.Value, ok
}

// Names returns the metric names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
