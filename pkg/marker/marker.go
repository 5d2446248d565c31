// Copyright 2025 walteh LLC
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

package marker

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🏷️ Marker lines recognized by default
const (
	Start = ".......... START .........."
	End   = ".......... END .........."
)

// 🔖 Pair couples a START line with the END line that closes it
type Pair struct {
	Start string `json:"start" yaml:"start" hcl:"start"`
	End   string `json:"end" yaml:"end" hcl:"end"`
}

// DefaultPair is the only pair used when no other pair is configured
var DefaultPair = Pair{Start: Start, End: End}

// 🔍 Validate checks that a pair can ever match a trimmed line
func (p Pair) Validate() error {
	if p.Start == "" || p.End == "" {
		return errors.New("start and end markers are required")
	}
	if p.Start == p.End {
		return errors.Errorf("start and end markers must differ: %q", p.Start)
	}
	for _, m := range []string{p.Start, p.End} {
		if strings.ContainsAny(m, "\r\n") {
			return errors.Errorf("marker %q spans multiple lines", m)
		}
		if strings.TrimSpace(m) != m {
			return errors.Errorf("marker %q has surrounding whitespace", m)
		}
	}
	return nil
}

// String returns the pair as "start … end"
func (p Pair) String() string {
	return p.Start + " … " + p.End
}
