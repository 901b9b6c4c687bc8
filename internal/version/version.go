// SPDX-License-Identifier: MIT

// Package version parses, normalizes and compares software version strings
// extracted from scraped web content.
package version

import (
	"regexp"
	"strconv"
	"strings"
)

// Candidate patterns, most specific first. Each has exactly one capture group.
var patterns = []*regexp.Regexp{
	// "version X.Y.Z"
	regexp.MustCompile(`(?i)version\s+(\d+(?:\.\d+)+)`),
	// "vX.Y.Z"
	regexp.MustCompile(`(?i)\bv(\d+(?:\.\d+)+)\b`),
	// standalone X.Y or X.Y.Z...
	regexp.MustCompile(`(?i)(?:^|[^\w.])(\d+\.\d+(?:\.\d+)*)`),
	// "Version: X.Y"
	regexp.MustCompile(`(?i)version:\s+(\d+(?:\.\d+)+)`),
	// "X.Y.Z (build N)"
	regexp.MustCompile(`(?i)(\d+\.\d+(?:\.\d+)*)\s*\(build\s+\d+\)`),
	// standalone major.minor
	regexp.MustCompile(`(?i)(?:^|[^\w.])(\d+\.\d+)(?:[^.\d]|$)`),
}

// Extract returns version-number candidates found in text, deduplicated
// while preserving discovery order.
func Extract(text string) []string {
	var found []string
	seen := make(map[string]struct{})
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			v := m[1]
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			found = append(found, v)
		}
	}
	return found
}

// Normalize strips a leading "v" and trailing ".0" components.
// "v2.1.0" becomes "2.1".
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') {
		v = v[1:]
	}
	parts := strings.Split(v, ".")
	for len(parts) > 1 && parts[len(parts)-1] == "0" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

var leadingDigits = regexp.MustCompile(`^(\d+)`)

// Parse converts a version string into numeric components. Components with a
// non-numeric suffix contribute their leading digits ("3rc1" -> 3); fully
// non-numeric components count as 0.
func Parse(v string) []int {
	v = Normalize(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
			continue
		}
		if m := leadingDigits.FindString(part); m != "" {
			n, _ := strconv.Atoi(m)
			out = append(out, n)
			continue
		}
		out = append(out, 0)
	}
	return out
}

// Compare orders two version strings component-wise, padding the shorter
// side with zeros. Returns -1 if a < b, 0 if equal, 1 if a > b.
func Compare(a, b string) int {
	ca, cb := Parse(a), Parse(b)
	n := len(ca)
	if len(cb) > n {
		n = len(cb)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(ca) {
			x = ca[i]
		}
		if i < len(cb) {
			y = cb[i]
		}
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
	}
	return 0
}

// IsNewer reports whether latest is strictly newer than current.
// An empty current always counts as outdated when latest is non-empty.
func IsNewer(current, latest string) bool {
	if latest == "" {
		return false
	}
	if current == "" {
		return true
	}
	return Compare(latest, current) > 0
}

// Highest returns the maximum version under Compare, or "" for empty input.
func Highest(versions []string) string {
	best := ""
	for _, v := range versions {
		if v == "" {
			continue
		}
		if best == "" || Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}
