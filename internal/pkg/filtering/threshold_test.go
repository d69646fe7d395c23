package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperatorAndValue(t *testing.T) {
	tests := []struct {
		input         string
		expectedOp    Operator
		expectedValue string
	}{
		{">100", OpGT, "100"},
		{">=100", OpGTE, "100"},
		{"<50", OpLT, "50"},
		{"<=50", OpLTE, "50"},
		{"=10", OpEQ, "10"},
		{"==10", OpEQ, "10"},
		{" >= 7 ", OpGTE, "7"},
		{"10", "", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			op, value := parseOperatorAndValue(tt.input)
			assert.Equal(t, tt.expectedOp, op)
			assert.Equal(t, tt.expectedValue, value)
		})
	}
}

func TestParseThreshold(t *testing.T) {
	th, err := parseThreshold("<=5", "")
	require.NoError(t, err)
	assert.Equal(t, "<=5", th.String())

	th, err = parseThreshold("5", "")
	require.NoError(t, err)
	assert.Equal(t, OpEQ, th.op)

	th, err = parseThreshold(" 2.5 ", OpGT)
	require.NoError(t, err)
	assert.Equal(t, ">2.5", th.String())

	_, err = parseThreshold(">5", OpGT)
	assert.Error(t, err)

	_, err = parseThreshold(">", "")
	assert.Error(t, err)

	th, err = parseThreshold("-1.5e1", "")
	require.NoError(t, err)
	assert.Equal(t, "=-15", th.String())

	for _, raw := range []string{"NaN", "nan", "inf", "+Inf", "-Inf", "Infinity", ">=NaN", "<-inf", "0x1p4", "0X10", "1e400", "1_000"} {
		_, err := parseThreshold(raw, "")
		assert.Error(t, err, raw)
	}
	_, err = parseThreshold("NaN", OpGT)
	assert.Error(t, err)
}

func TestThresholdMatches(t *testing.T) {
	tests := []struct {
		name     string
		th       threshold
		value    float64
		expected bool
	}{
		{"gt true", threshold{OpGT, 10}, 11, true},
		{"gt boundary", threshold{OpGT, 10}, 10, false},
		{"gte boundary", threshold{OpGTE, 10}, 10, true},
		{"lt true", threshold{OpLT, 10}, 9, true},
		{"lt boundary", threshold{OpLT, 10}, 10, false},
		{"lte boundary", threshold{OpLTE, 10}, 10, true},
		{"eq", threshold{OpEQ, 1}, 1, true},
		{"eq epsilon", threshold{OpEQ, 1}, 1.00001, true},
		{"eq miss", threshold{OpEQ, 1}, 2, false},
		{"invalid op", threshold{Operator("~"), 1}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.th.matches(tt.value))
		})
	}
}

func TestOperatorIsValid(t *testing.T) {
	for _, op := range []Operator{OpGT, OpGTE, OpLT, OpLTE, OpEQ} {
		assert.True(t, op.IsValid(), string(op))
	}
	assert.False(t, Operator("!=").IsValid())
	assert.False(t, Operator("").IsValid())
}
