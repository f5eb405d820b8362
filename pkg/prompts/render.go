// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package prompts

import (
	"bytes"
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xeipuuv/gojsonschema"
)

// placeholder matches {{name}} and {{.name}}.
var placeholder = regexp.MustCompile(`\{\{\s*\.?(\w+)\s*\}\}`)

// jsonShapes are the schemas ARRAY and OBJECT values must satisfy.
var jsonShapes = map[ParameterType]gojsonschema.JSONLoader{
	ParameterArray:  gojsonschema.NewStringLoader(`{"type": "array"}`),
	ParameterObject: gojsonschema.NewStringLoader(`{"type": "object"}`),
}

// injectionMarkers are blanked out of substituted values so a value cannot
// open a new role turn or fenced block inside the prompt.
var injectionMarkers = []string{
	"```",
	"###",
	"---",
	"System:",
	"Assistant:",
	"Human:",
	"[INST]",
	"[/INST]",
	"<|im_start|>",
	"<|im_end|>",
}

// Render substitutes vars into v's content.
//
// Every declared parameter takes its value from vars, falling back to its
// default. Values are checked against the parameter's type and validation
// pattern; required parameters without a value and vars naming undeclared
// parameters are rejected. All failures are reported together as a
// *ValidationError keyed by parameter name.
//
// Substituted values are flattened to one line and stripped of markup and
// role markers. ARRAY and OBJECT values are compacted instead of escaped so
// the prompt carries the JSON that was validated. Placeholders with no value
// are left in place.
//
//	out, err := prompts.Render(v, map[string]string{"text": doc})
func Render(v *Version, vars map[string]string) (string, error) {
	declared := make(map[string]bool, len(v.Parameters))
	values := make(map[string]string, len(v.Parameters))
	errs := FieldErrors{}

	for _, p := range v.Parameters {
		declared[p.Name] = true
		value, ok := vars[p.Name]
		if !ok {
			value, ok = p.DefaultValue, p.DefaultValue != ""
		}
		if !ok {
			if p.Required {
				errs.Add(p.Name, "Required parameter has no value")
			}
			continue
		}
		if msg := checkValue(p, value); msg != "" {
			errs.Add(p.Name, msg)
			continue
		}
		values[p.Name] = sanitizeFor(p.Type, value)
	}
	for name := range vars {
		if !declared[name] {
			errs.Add(name, "Parameter is not declared by this version")
		}
	}
	if err := errs.Err(); err != nil {
		return "", err
	}

	return placeholder.ReplaceAllStringFunc(v.Content, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		value, ok := values[name]
		if !ok {
			return match
		}
		return value
	}), nil
}

func checkValue(p Parameter, value string) string {
	switch p.Type {
	case ParameterNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "Value must be a number"
		}
	case ParameterBoolean:
		if _, err := strconv.ParseBool(value); err != nil {
			return "Value must be true or false"
		}
	case ParameterDate:
		if _, err := time.Parse(time.DateOnly, value); err != nil {
			return "Value must be a date (YYYY-MM-DD)"
		}
	case ParameterDateTime:
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return "Value must be an RFC 3339 timestamp"
		}
	case ParameterArray, ParameterObject:
		result, err := gojsonschema.Validate(jsonShapes[p.Type], gojsonschema.NewStringLoader(value))
		if err != nil || !result.Valid() {
			return "Value must be a JSON " + strings.ToLower(string(p.Type))
		}
	}
	if p.ValidationPattern != "" {
		re, err := regexp.Compile(p.ValidationPattern)
		if err != nil {
			return "Validation pattern does not compile"
		}
		if !re.MatchString(value) {
			return "Value does not match pattern " + p.ValidationPattern
		}
	}
	return ""
}

func sanitizeFor(t ParameterType, value string) string {
	if t == ParameterArray || t == ParameterObject {
		return sanitizeJSON(value)
	}
	return sanitize(value)
}

// sanitizeJSON compacts a validated JSON value onto one line and blanks
// role markers inside it. The result is still valid JSON.
func sanitizeJSON(value string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(value)); err != nil {
		return sanitize(value)
	}
	return blankMarkers(buf.String())
}

func blankMarkers(value string) string {
	for _, marker := range injectionMarkers {
		value = strings.ReplaceAll(value, marker, strings.Repeat(" ", len(marker)))
	}
	return value
}

// sanitize makes value safe to splice into a prompt.
func sanitize(value string) string {
	value = strings.ToValidUTF8(value, "")
	value = html.EscapeString(value)

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(blankMarkers(b.String())), " ")
}
