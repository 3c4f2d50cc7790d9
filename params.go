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

import "fmt"

// ValueKind identifies the typed representation of a path parameter.
type ValueKind uint8

const (
	// KindString is the kind of str, uuid, slug, and path captures.
	KindString ValueKind = iota
	// KindInt is the kind of int captures.
	KindInt
	// KindFloat is the kind of float captures.
	KindFloat
)

// String returns the kind name for diagnostics.
func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "string"
	}
}

// Value is a typed path parameter extracted during route resolution.
// The raw segment text is always retained alongside the converted value.
type Value struct {
	kind ValueKind
	raw  string
	i    int64
	f    float64
}

func stringValue(raw string) Value { return Value{kind: KindString, raw: raw} }
func intValue(raw string, i int64) Value { return Value{kind: KindInt, raw: raw, i: i} }
func floatValue(raw string, f float64) Value { return Value{kind: KindFloat, raw: raw, f: f} }

// Kind returns the typed kind of the value.
func (v Value) Kind() ValueKind { return v.kind }

// Text returns the raw segment text the value was parsed from.
func (v Value) Text() string { return v.raw }

// Int returns the integer value. It is zero unless Kind is KindInt.
func (v Value) Int() int64 { return v.i }

// Float returns the float value. It is zero unless Kind is KindFloat.
func (v Value) Float() float64 { return v.f }

// Params holds the typed path parameters of one resolved route.
// It is owned by the dispatch of a single request and is never shared.
type Params map[string]Value

// Text returns the raw text of the named parameter, or "" if absent.
func (p Params) Text(name string) string {
	return p[name].raw
}

// Int returns the named parameter as an int64.
// Returns an error if the parameter is missing or was not captured by an
// int converter.
func (p Params) Int(name string) (int64, error) {
	v, ok := p[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}
	if v.kind != KindInt {
		return 0, fmt.Errorf("%w: %s is %s, not int", ErrParamInvalid, name, v.kind)
	}
	return v.i, nil
}

// Float returns the named parameter as a float64.
// Returns an error if the parameter is missing or was not captured by a
// float converter.
func (p Params) Float(name string) (float64, error) {
	v, ok := p[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}
	if v.kind != KindFloat {
		return 0, fmt.Errorf("%w: %s is %s, not float", ErrParamInvalid, name, v.kind)
	}
	return v.f, nil
}

// Has reports whether the named parameter was captured.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}
