package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-grades/internal/grading"
)

// SourceWeightsFlag names CLI weight input in configuration errors.
const SourceWeightsFlag = "cli"

// Weights maps category name to weight. Values may be written as numbers or
// strings such as "40" or "40%".
type Weights map[string]float64

func (w *Weights) UnmarshalYAML(n *yaml.Node) error {
	var raw map[string]any
	if err := n.Decode(&raw); err != nil {
		return err
	}
	return w.set(raw)
}

func (w *Weights) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return w.set(raw)
}

func (w *Weights) set(raw map[string]any) error {
	if raw == nil {
		*w = nil
		return nil
	}
	out := make(Weights, len(raw))
	for k, v := range raw {
		f, ok := weightValue(v)
		if !ok {
			return fmt.Errorf("weight %q: %v is not a number", k, v)
		}
		out[k] = f
	}
	*w = out
	return nil
}

func weightValue(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		return parseFloatLoose(strings.TrimSuffix(strings.TrimSpace(x), "%"))
	default:
		return 0, false
	}
}

func parseFloatLoose(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if sp := strings.Fields(s); len(sp) > 0 {
		if v, err := strconv.ParseFloat(sp[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// ParseWeightsJSON parses a --weights value such as {"Homework":40,"Exams":60}.
func ParseWeightsJSON(s string) (map[string]float64, error) {
	var w Weights
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return nil, &grading.ConfigurationError{Source: SourceWeightsFlag, Value: s, Reason: "invalid weights JSON: " + err.Error()}
	}
	return w, nil
}

// LoadWeightsFile reads a flat name→weight mapping from a YAML or JSON file.
func LoadWeightsFile(path string) (map[string]float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}
	var w Weights
	if err := decode(path, b, &w); err != nil {
		return nil, &grading.ConfigurationError{Source: SourceWeightsFlag, Value: path, Reason: "invalid weights file: " + err.Error()}
	}
	return w, nil
}

// IDList is a list of course ids that accepts numbers or numeric strings.
type IDList []int64

func (l *IDList) UnmarshalYAML(n *yaml.Node) error {
	var raw []any
	if err := n.Decode(&raw); err != nil {
		return err
	}
	return l.set(raw)
}

func (l *IDList) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return l.set(raw)
}

func (l *IDList) set(raw []any) error {
	out := make(IDList, 0, len(raw))
	for _, v := range raw {
		var id int64
		switch x := v.(type) {
		case int:
			id = int64(x)
		case int64:
			id = x
		case uint64:
			id = int64(x)
		case float64:
			if x != float64(int64(x)) {
				return fmt.Errorf("course id %v is not an integer", x)
			}
			id = int64(x)
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return fmt.Errorf("course id %q is not an integer", x)
			}
			id = n
		default:
			return fmt.Errorf("course id %v is not an integer", v)
		}
		out = append(out, id)
	}
	*l = out
	return nil
}

// ParseIDList parses a comma-separated id list such as "101, 202".
func ParseIDList(s string) ([]int64, error) {
	var out []int64
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("course id %q is not an integer", p)
		}
		out = append(out, id)
	}
	return out, nil
}
