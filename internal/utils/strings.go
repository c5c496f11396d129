// Package utils holds small helpers shared by handlers and jobs.
package utils

import (
	"strconv"
	"strings"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// ParsePositiveInts parses a comma-separated list of positive integers, such as "20,50".
// Values that are not positive integers are dropped. Duplicates keep their first position.
func ParsePositiveInts(s string) []int {
	var result []int
	seen := make(map[int]bool)
	for _, v := range ParseCSV(s) {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result
}
