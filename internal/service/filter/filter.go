// Package filter narrows raw backend JSON with JMESPath expressions.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmespath/go-jmespath"
)

// Apply runs filter and then query over body. Either expression may be
// empty. A string result is returned unquoted so report text prints as-is.
func Apply(body []byte, filter, query string) (string, error) {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	var err error
	if filter = strings.TrimSpace(filter); filter != "" {
		if data, err = search(data, filter); err != nil {
			return "", fmt.Errorf("failed to apply filter: %w", err)
		}
	}
	if query = strings.TrimSpace(query); query != "" {
		if data, err = search(data, query); err != nil {
			return "", fmt.Errorf("failed to apply query: %w", err)
		}
	}

	switch v := data.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(out), nil
}

func search(data interface{}, expression string) (interface{}, error) {
	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JMESPath expression '%s': %w", expression, err)
	}
	result, err := jp.Search(data)
	if err != nil {
		return nil, fmt.Errorf("JMESPath search failed: %w", err)
	}
	return result, nil
}

// IsValidJMESPath checks if an expression is valid JMESPath syntax.
func IsValidJMESPath(expression string) bool {
	_, err := jmespath.Compile(expression)
	return err == nil
}
