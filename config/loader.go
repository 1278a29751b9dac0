package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadBatch loads a batch file from the given path. Files ending in .json
// are parsed as JSON; anything else as YAML.
func LoadBatch(path string) (*Batch, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("batch file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading batch file: %w", err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return ParseBatch(data, format)
}

// ParseBatch parses batch file content in the given format ("json" or
// "yaml").
func ParseBatch(data []byte, format string) (*Batch, error) {
	var batch Batch
	switch format {
	case "json":
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("error parsing batch file: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("error parsing batch file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported batch file format: %s", format)
	}
	return &batch, nil
}

// LoadEnvFile reads KEY=value pairs from a dotenv file.
func LoadEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("error reading env file: %w", err)
	}
	return vars, nil
}

// ParseVarFlags parses "key=value" pairs as given on the command line.
func ParseVarFlags(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q, expected key=value", pair)
		}
		vars[key] = val
	}
	return vars, nil
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// ProcessEnvironment processes variable substitution in a string.
// Variables are specified using the {{variableName}} syntax. Unknown
// placeholders are left untouched.
//
// Example:
//
//	path := config.ProcessEnvironment("/users/{{userId}}", map[string]string{
//	    "userId": "123",
//	})
//	// Result: "/users/123"
func ProcessEnvironment(input string, env map[string]string) string {
	if !strings.Contains(input, "{{") {
		return input
	}
	return placeholderPattern.ReplaceAllStringFunc(input, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		if v, ok := env[name]; ok {
			return v
		}
		return m
	})
}

// UnresolvedVariables lists the placeholders left in s, sorted.
func UnresolvedVariables(s string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names
}

// ProcessEnvironmentInMap processes environment variables in a map of strings.
func ProcessEnvironmentInMap(input map[string]string, env map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	result := make(map[string]string, len(input))
	for key, value := range input {
		result[key] = ProcessEnvironment(value, env)
	}
	return result
}

// MergeEnvironments merges environments left to right, later ones taking
// precedence.
func MergeEnvironments(envs ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, env := range envs {
		for key, value := range env {
			result[key] = value
		}
	}
	return result
}
