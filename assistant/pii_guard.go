// Copyright 2025 AxonFlow
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

package assistant

import "regexp"

// nricPlaceholder replaces every detected identifier
const nricPlaceholder = "MASKED_NRIC"

// nricEntityLabel is the single reported entity kind
const nricEntityLabel = "NRIC"

// nricPattern matches Singapore NRIC/FIN numbers: one prefix letter (S/T for
// citizens and residents by birth era, F/G/M for foreign residents), seven
// digits and a checksum letter, case-insensitive.
var nricPattern = regexp.MustCompile(`(?i)\b[STFGM]\d{7}[A-Z]\b`)

// PIIGuard redacts sensitive identifiers from outgoing text before it
// reaches the remote model. It runs regardless of the upstream masking
// module, so identifiers stay protected even when that module is disabled
// or misconfigured.
type PIIGuard struct{}

// NewPIIGuard creates the client-side masking guard
func NewPIIGuard() *PIIGuard {
	return &PIIGuard{}
}

// Mask replaces every NRIC/FIN occurrence with the placeholder token and
// returns the redacted text plus the masked entity labels. The label list
// holds a single entry however many identifiers matched; text without a
// match passes through unchanged with an empty list.
func (g *PIIGuard) Mask(text string) (string, []string) {
	if !nricPattern.MatchString(text) {
		return text, []string{}
	}
	return nricPattern.ReplaceAllString(text, nricPlaceholder), []string{nricEntityLabel}
}
