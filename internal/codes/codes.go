// Package codes maps the lock-in amplifier's numeric configuration codes to
// human-readable settings and back. The instrument reports every setting as
// a small integer; these tables cover the settings the acquisition tooling
// cares about.
package codes

import (
	"fmt"
	"strconv"
	"strings"
)

// Query verbs for the decoded settings.
const (
	VerbInput        = "ISRC"
	VerbGrounding    = "IGND"
	VerbCoupling     = "ICPL"
	VerbSensitivity  = "SENS"
	VerbReserve      = "RMOD"
	VerbTimeConstant = "OFLT"
	VerbFilterSlope  = "OFSL"
)

// Setting describes one decodable instrument setting.
type Setting struct {
	Verb   string
	Name   string
	Values map[int]string
}

// Settings lists every decodable setting in display order.
var Settings = []Setting{
	{VerbInput, "input", inputSource},
	{VerbGrounding, "grounding", grounding},
	{VerbCoupling, "input coupling", coupling},
	{VerbSensitivity, "sensitivity", sensitivity},
	{VerbReserve, "dynamic reserve", reserve},
	{VerbTimeConstant, "time constant", timeConstant},
	{VerbFilterSlope, "low pass filter slope", filterSlope},
}

var inputSource = map[int]string{
	0: "A",
	1: "A-B",
	2: "I (MOhm)",
	3: "I (100 MOhm)",
}

var grounding = map[int]string{
	0: "FLOAT",
	1: "GROUND",
}

var coupling = map[int]string{
	0: "AC",
	1: "DC",
}

var sensitivity = map[int]string{
	0:  "2 nV/fA",
	1:  "5 nV/fA",
	2:  "10 nV/fA",
	3:  "20 nV/fA",
	4:  "50 nV/fA",
	5:  "100 nV/fA",
	6:  "200 nV/fA",
	7:  "500 nV/fA",
	8:  "1 uV/pA",
	9:  "2 uV/pA",
	10: "5 uV/pA",
	11: "10 uV/pA",
	12: "20 uV/pA",
	13: "50 uV/pA",
	14: "100 uV/pA",
	15: "200 uV/pA",
	16: "500 uV/pA",
	17: "1 mV/nA",
	18: "2 mV/nA",
	19: "5 mV/nA",
	20: "10 mV/nA",
	21: "20 mV/nA",
	22: "50 mV/nA",
	23: "100 mV/nA",
	24: "200 mV/nA",
	25: "500 mV/nA",
	26: "1 V/uA",
}

var reserve = map[int]string{
	0: "HIGH RESERVE",
	1: "NORMAL",
	2: "LOW NOISE",
}

var timeConstant = map[int]string{
	0:  "10 us",
	1:  "30 us",
	2:  "100 us",
	3:  "300 us",
	4:  "1 ms",
	5:  "3 ms",
	6:  "10 ms",
	7:  "30 ms",
	8:  "100 ms",
	9:  "300 ms",
	10: "1 s",
	11: "3 s",
	12: "10 s",
	13: "30 s",
	14: "100 s",
	15: "300 s",
	16: "1 ks",
	17: "3 ks",
	18: "10 ks",
	19: "30 ks",
}

var filterSlope = map[int]string{
	0: "6 dB/oct",
	1: "12 dB/oct",
	2: "18 dB/oct",
	3: "24 dB/oct",
}

func setting(verb string) (Setting, bool) {
	for _, s := range Settings {
		if s.Verb == verb {
			return s, true
		}
	}
	return Setting{}, false
}

// Describe returns the human-readable text for a setting code.
func Describe(verb string, code int) (string, error) {
	s, ok := setting(verb)
	if !ok {
		return "", fmt.Errorf("unknown setting verb %q", verb)
	}
	text, ok := s.Values[code]
	if !ok {
		return "", fmt.Errorf("unknown %s code %d", s.Name, code)
	}
	return text, nil
}

// Code performs the reverse lookup: the numeric code for a human-readable
// setting value. The comparison is case-insensitive.
func Code(verb, text string) (int, error) {
	s, ok := setting(verb)
	if !ok {
		return 0, fmt.Errorf("unknown setting verb %q", verb)
	}
	for code, v := range s.Values {
		if strings.EqualFold(v, text) {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown %s value %q", s.Name, text)
}

// Querier is the query side of the instrument channel.
type Querier interface {
	Query(command string) (string, error)
}

// Value is one decoded configuration entry.
type Value struct {
	Verb string
	Name string
	Code int
	Text string
}

// Snapshot queries every decodable setting from the instrument and decodes
// it. A malformed reply surfaces as a transport error naming the verb.
func Snapshot(q Querier) ([]Value, error) {
	out := make([]Value, 0, len(Settings))
	for _, s := range Settings {
		reply, err := q.Query(s.Verb + "?")
		if err != nil {
			return nil, err
		}
		code, err := strconv.Atoi(strings.TrimSpace(reply))
		if err != nil {
			return nil, fmt.Errorf("malformed %s reply %q: %w", s.Verb, reply, err)
		}
		text, err := Describe(s.Verb, code)
		if err != nil {
			return nil, err
		}
		out = append(out, Value{Verb: s.Verb, Name: s.Name, Code: code, Text: text})
	}
	return out, nil
}
