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

package config

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// ⏱️ unit multipliers accepted after a plain number
var ageUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

var agePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([smhdw])$`)

// ParseAge parses a maximum file age.
//
// Anything time.ParseDuration accepts works ("2h", "1h30m"), as does a single
// number with a day or week unit ("1.5d", "2w"). An empty string means no limit.
func ParseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, errors.Errorf("age must be positive: %q", s)
		}
		return d, nil
	}

	m := agePattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, errors.Errorf("invalid age %q: want a duration like 30m, 2h, 1.5d or 2w", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, errors.Errorf("invalid age %q: %w", s, err)
	}

	d := value * float64(ageUnits[m[2]])
	if d <= 0 || d > math.MaxInt64 {
		return 0, errors.Errorf("age out of range: %q", s)
	}

	return time.Duration(d), nil
}
