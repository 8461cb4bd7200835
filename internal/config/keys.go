package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultAttendanceKeys is the deployed college/course catalog. Every
// (department, course) pair the aggregator may count must appear here or in
// the keys file; increments to anything else are dropped.
func DefaultAttendanceKeys() map[string][]string {
	return map[string][]string{
		"CAS":   {"COMM", "MMA"},
		"CHS":   {"PT", "PH", "PSY", "BIO"},
		"ATYCB": {"ENT", "ACT", "MA", "TM", "REM"},
		"CCIS":  {"EMC", "CS", "IS"},
		"CEA":   {"AR", "ChE", "CE", "CpE", "EE", "Ece", "IE", "ME"},
	}
}

// LoadAttendanceKeys reads a department → course-list mapping from a JSON
// file. An empty path returns the default catalog.
func LoadAttendanceKeys(path string) (map[string][]string, error) {
	if path == "" {
		return DefaultAttendanceKeys(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attendance keys: %w", err)
	}
	var keys map[string][]string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("parse attendance keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("attendance keys file %s is empty", path)
	}
	return keys, nil
}
