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
package lifecycle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/teradata-labs/promptver/pkg/prompts"
	"github.com/teradata-labs/promptver/pkg/semver"
)

// Field keys used in validation errors.
const (
	FieldTemplateID    = "templateId"
	FieldContent       = "content"
	FieldVersionNumber = "versionNumber"
)

const versionNumberFormat = "Version number must follow format: major.minor.patch (e.g., 1.0.0)"

// IsValidVersionNumber reports whether text is a well-formed version number.
func (e *Engine) IsValidVersionNumber(text string) bool {
	return semver.IsValid(text)
}

// ParseVersionNumber parses text, failing with a validation error on the
// versionNumber field when it is malformed.
func (e *Engine) ParseVersionNumber(text string) (semver.Version, error) {
	v, err := semver.Parse(text)
	if err != nil {
		return semver.Version{}, invalidNumber(text)
	}
	return v, nil
}

func invalidNumber(text string) error {
	return &prompts.ValidationError{
		Message: "Invalid version number format: " + text,
		Fields:  map[string]string{FieldVersionNumber: versionNumberFormat},
	}
}

func validateNumber(fe prompts.FieldErrors, number string) {
	switch {
	case strings.TrimSpace(number) == "":
		fe.Add(FieldVersionNumber, "Version number is required")
	case !semver.IsValid(number):
		fe.Add(FieldVersionNumber, versionNumberFormat)
	}
}

// validateParameters records one failure per offending parameter field.
// The second and later uses of a name are reported as duplicates.
func validateParameters(fe prompts.FieldErrors, params []prompts.Parameter) {
	seen := make(map[string]bool, len(params))
	for i, p := range params {
		nameField := fmt.Sprintf("parameters[%d].name", i)
		switch {
		case strings.TrimSpace(p.Name) == "":
			fe.Add(nameField, "Parameter name is required")
		case seen[p.Name]:
			fe.Add(nameField, "Duplicate parameter name: "+p.Name)
		default:
			seen[p.Name] = true
		}

		typeField := fmt.Sprintf("parameters[%d].type", i)
		switch {
		case p.Type == "":
			fe.Add(typeField, "Parameter type is required")
		case !p.Type.Valid():
			fe.Add(typeField, "Unknown parameter type: "+string(p.Type))
		}

		if p.ValidationPattern != "" {
			if _, err := regexp.Compile(p.ValidationPattern); err != nil {
				fe.Add(fmt.Sprintf("parameters[%d].validationPattern", i), "Invalid validation pattern: "+err.Error())
			}
		}
	}
}

func validateCreate(req CreateRequest) error {
	fe := prompts.FieldErrors{}
	if strings.TrimSpace(req.TemplateID) == "" {
		fe.Add(FieldTemplateID, "Template ID is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		fe.Add(FieldContent, "Content is required")
	}
	validateNumber(fe, req.VersionNumber)
	validateParameters(fe, req.Parameters)
	return fe.Err()
}

func validateBranch(req BranchRequest) error {
	fe := prompts.FieldErrors{}
	validateNumber(fe, req.VersionNumber)
	if req.Content != nil && strings.TrimSpace(*req.Content) == "" {
		fe.Add(FieldContent, "Content is required")
	}
	validateParameters(fe, req.Parameters)
	return fe.Err()
}
