package filtering

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Operator is a numeric comparison operator used by threshold filters.
type Operator string

const (
	OpGT  Operator = ">"
	OpGTE Operator = ">="
	OpLT  Operator = "<"
	OpLTE Operator = "<="
	OpEQ  Operator = "="
)

// IsValid checks if the operator is supported
func (op Operator) IsValid() bool {
	switch op {
	case OpGT, OpGTE, OpLT, OpLTE, OpEQ:
		return true
	}
	return false
}

// threshold is one parsed bound, e.g. ">= 100"
type threshold struct {
	op    Operator
	value float64
}

// parseThreshold parses a supplied threshold value. When op is fixed the
// value must be a bare number.
func parseThreshold(raw string, fixed Operator) (threshold, error) {
	op, valueStr := fixed, strings.TrimSpace(raw)
	if op == "" {
		op, valueStr = parseOperatorAndValue(raw)
		if op == "" {
			op = OpEQ
		}
	}

	if strings.Trim(valueStr, "0123456789.+-eE") != "" {
		return threshold{}, fmt.Errorf("not a decimal number")
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return threshold{}, fmt.Errorf("not a number")
	}
	return threshold{op: op, value: value}, nil
}

// parseOperatorAndValue extracts the operator and value from a comparison string
func parseOperatorAndValue(s string) (Operator, string) {
	s = strings.TrimSpace(s)

	// Check for two-character operators first
	for _, op := range []string{">=", "<=", "=="} {
		if strings.HasPrefix(s, op) {
			if op == "==" {
				return OpEQ, strings.TrimSpace(s[2:])
			}
			return Operator(op), strings.TrimSpace(s[2:])
		}
	}

	for _, op := range []Operator{OpGT, OpLT, OpEQ} {
		if strings.HasPrefix(s, string(op)) {
			return op, strings.TrimSpace(s[1:])
		}
	}

	return "", s
}

// matches checks a field value against the bound
func (t threshold) matches(fieldValue float64) bool {
	switch t.op {
	case OpGT:
		return fieldValue > t.value
	case OpLT:
		return fieldValue < t.value
	case OpGTE:
		return fieldValue >= t.value
	case OpLTE:
		return fieldValue <= t.value
	case OpEQ:
		const epsilon = 0.0001
		diff := fieldValue - t.value
		if diff < 0 {
			diff = -diff
		}
		return diff < epsilon
	default:
		return false
	}
}

func (t threshold) String() string {
	return string(t.op) + strconv.FormatFloat(t.value, 'f', -1, 64)
}
