// Copyright 2025 The Golette Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package golette

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// converter identifies the typed parser applied to a capture segment.
type converter uint8

const (
	convString converter = iota // default, any single segment
	convInt                     // base-10 integer, overflow-checked
	convFloat                   // finite decimal
	convUUID                    // RFC 4122 text form
	convSlug                    // [-A-Za-z0-9_]+
	convPath                    // greedy remainder, final segment only
)

// parseConverter resolves a converter name from a pattern.
// Both the long and short spellings are accepted.
func parseConverter(name string) (converter, bool) {
	switch name {
	case "", "str", "string":
		return convString, true
	case "int", "integer":
		return convInt, true
	case "float":
		return convFloat, true
	case "uuid":
		return convUUID, true
	case "slug":
		return convSlug, true
	case "path":
		return convPath, true
	default:
		return 0, false
	}
}

// String returns the canonical converter name.
func (cv converter) String() string {
	switch cv {
	case convInt:
		return "int"
	case convFloat:
		return "float"
	case convUUID:
		return "uuid"
	case convSlug:
		return "slug"
	case convPath:
		return "path"
	default:
		return "str"
	}
}

// decimalInt reports whether text is an optionally negated run of decimal
// digits. Signs other than a leading minus, exponents, and hex forms that
// strconv would otherwise accept do not match an integer segment.
func decimalInt(text string) bool {
	if strings.HasPrefix(text, "-") {
		text = text[1:]
	}
	if text == "" {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}

// decimalFloat reports whether text is an optionally negated run of decimal
// digits with at most one fractional part, each side of the dot non-empty.
func decimalFloat(text string) bool {
	whole, frac, dotted := strings.Cut(text, ".")
	if !decimalInt(whole) {
		return false
	}
	if !dotted {
		return true
	}
	if frac == "" {
		return false
	}
	for i := 0; i < len(frac); i++ {
		if frac[i] < '0' || frac[i] > '9' {
			return false
		}
	}
	return true
}

// parse attempts to convert one segment of text. A failed parse is not an
// error: the trie walk backtracks to the next candidate edge.
func (cv converter) parse(text string) (Value, bool) {
	if text == "" {
		return Value{}, false
	}
	switch cv {
	case convString:
		return stringValue(text), true
	case convInt:
		if !decimalInt(text) {
			return Value{}, false
		}
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			// int64 overflow.
			return Value{}, false
		}
		return intValue(text, i), true
	case convFloat:
		if !decimalFloat(text) {
			return Value{}, false
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return Value{}, false
		}
		return floatValue(text, f), true
	case convUUID:
		if _, err := uuid.Parse(text); err != nil {
			return Value{}, false
		}
		return stringValue(text), true
	case convSlug:
		for i := 0; i < len(text); i++ {
			c := text[i]
			if c != '-' && c != '_' &&
				(c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
				return Value{}, false
			}
		}
		return stringValue(text), true
	case convPath:
		return stringValue(text), true
	default:
		return Value{}, false
	}
}

// segment is one compiled element of a route pattern: either a literal
// string or a named capture with a converter.
type segment struct {
	literal string    // set when capture is false
	name    string    // capture name
	conv    converter // capture converter
	capture bool
}

// compilePattern splits a pattern on "/" and compiles each element.
//
// Grammar per segment: a literal, "{name}" (string capture), or
// "{name:converter}". Compilation fails when a converter name is unknown,
// a path converter appears in a non-final segment, a capture name repeats,
// or braces are malformed.
func compilePattern(pattern string) ([]segment, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, &PatternError{Pattern: pattern, Reason: "must start with '/'"}
	}

	trimmed := strings.Trim(pattern, "/")
	if trimmed == "" {
		// Root pattern: zero segments.
		return []segment{}, nil
	}

	parts := strings.Split(trimmed, "/")
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for i, part := range parts {
		if part == "" {
			return nil, &PatternError{Pattern: pattern, Reason: "empty segment"}
		}

		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			inner := part[1 : len(part)-1]
			name, convName, _ := strings.Cut(inner, ":")
			if name == "" {
				return nil, &PatternError{Pattern: pattern, Reason: "capture segment has no name"}
			}
			cv, ok := parseConverter(convName)
			if !ok {
				return nil, &PatternError{Pattern: pattern, Reason: "unknown converter " + strconv.Quote(convName)}
			}
			if cv == convPath && i != len(parts)-1 {
				return nil, &PatternError{Pattern: pattern, Reason: "path converter must be the final segment"}
			}
			if _, dup := seen[name]; dup {
				return nil, &PatternError{Pattern: pattern, Reason: "duplicate parameter name " + strconv.Quote(name)}
			}
			seen[name] = struct{}{}
			segments = append(segments, segment{name: name, conv: cv, capture: true})
			continue
		}

		if strings.ContainsAny(part, "{}") {
			return nil, &PatternError{Pattern: pattern, Reason: "malformed braces in segment " + strconv.Quote(part)}
		}
		segments = append(segments, segment{literal: part})
	}

	return segments, nil
}

// splitPath breaks a request path into match segments. The root path and the
// empty path both yield zero segments. Repeated slashes collapse, matching
// the tolerance of the registration side.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
