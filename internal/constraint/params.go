package constraint

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

func paramString(params map[string]any, name string) (string, bool, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: %s must be a single value", ErrInvalidParameter, name)
	}
	return s, true, nil
}

func paramBool(params map[string]any, name string, def bool) (bool, error) {
	s, ok, err := paramString(params, name)
	if err != nil || !ok {
		return def, err
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidParameter, name, s)
	}
	return b, nil
}

func paramInt(params map[string]any, name string) (int, bool, error) {
	s, ok, err := paramString(params, name)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidParameter, name, s)
	}
	return n, true, nil
}

func paramFloat(params map[string]any, name string) (float64, bool, error) {
	s, ok, err := paramString(params, name)
	if err != nil || !ok {
		return 0, false, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidParameter, name, s)
	}
	return f, true, nil
}

func paramList(params map[string]any, name string) ([]string, bool, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return nil, false, nil
	}
	switch list := v.(type) {
	case []string:
		return list, true, nil
	case string:
		return []string{list}, true, nil
	}
	return nil, false, fmt.Errorf("%w: %s must be a list", ErrInvalidParameter, name)
}

func checkKnown(params map[string]any, known ...string) error {
	for name := range params {
		if !slices.Contains(known, name) {
			return fmt.Errorf("%w: unknown parameter %s", ErrInvalidParameter, name)
		}
	}
	return nil
}
