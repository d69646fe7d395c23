package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/endorses/routefilter/internal/pkg/cmdutil"
	"github.com/endorses/routefilter/internal/pkg/filtering"
	svc "github.com/endorses/routefilter/internal/pkg/query"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryYAML = `
devices:
  - name: Device 1
  - name: Device 2
static_routes:
  - {name: Route 1, prefix: 0.0.0.0/0, next_hop: 10.10.10.1, devices: [Device 1]}
  - {name: Route 2, prefix: 1.1.1.0/24, next_hop: 10.10.10.2, devices: [Device 1]}
  - {name: Route 3, prefix: 0.0.0.0/0, next_hop: 10.10.10.1, devices: [Device 2], metric: 100}
`

func setup(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "inventory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(inventoryYAML), 0644))
	viper.Set("inventory.file", path)
	outputFormat = ""
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	t.Cleanup(func() { outputFormat = "" })
	err := cmd.Execute()
	return buf.String(), err
}

func TestQueryCommand(t *testing.T) {
	setup(t)

	out, err := run(t, QueryCmd, "static-route", "prefix=0.0.0.0/0", "device=Device 1")
	require.NoError(t, err)

	var doc struct {
		Kind    string           `json:"kind"`
		Count   int              `json:"count"`
		Total   int              `json:"total"`
		Records []map[string]any `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "static-route", doc.Kind)
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, 3, doc.Total)
	assert.Equal(t, "Route 1", doc.Records[0]["name"])
}

func TestQueryCommandTable(t *testing.T) {
	setup(t)

	out, err := run(t, QueryCmd, "static-route", "metric__gte=50", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Route 3")
	assert.Contains(t, out, "Device 2")
	assert.NotContains(t, out, "Route 1")
}

func TestQueryCommandFormatFromConfig(t *testing.T) {
	setup(t)
	viper.Set("output.format", "table")

	out, err := run(t, QueryCmd, "static-route")
	require.NoError(t, err)
	assert.Contains(t, out, "NEXT HOP")
}

func TestQueryCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
	}{
		{"unknown kind", []string{"bgp-peer"}, cmdutil.ExitNotFoundError},
		{"unknown filter", []string{"static-route", "colour=blue"}, cmdutil.ExitValidationError},
		{"bad value", []string{"static-route", "prefix=nope"}, cmdutil.ExitValidationError},
		{"bad argument", []string{"static-route", "prefix"}, cmdutil.ExitValidationError},
		{"bad format", []string{"static-route", "--format", "xml"}, cmdutil.ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup(t)
			_, err := run(t, QueryCmd, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, cmdutil.ExitCodeFor(err))
		})
	}
}

func TestQueryCommandJoinedErrors(t *testing.T) {
	setup(t)

	_, err := run(t, QueryCmd, "static-route", "colour=blue", "metric__gt=high")
	require.Error(t, err)

	var unknown *filtering.UnknownFilterError
	var coercion *filtering.CoercionError
	assert.True(t, errors.As(err, &unknown))
	assert.True(t, errors.As(err, &coercion))
}

func TestFiltersCommand(t *testing.T) {
	setup(t)

	out, err := run(t, FiltersCmd, "ospf-area")
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d["name"].(string)
	}
	assert.Equal(t, []string{"q", "area_id", "area_type"}, names)
}

func TestFiltersCommandUnknownKind(t *testing.T) {
	setup(t)

	_, err := run(t, FiltersCmd, "device")
	var unknown *svc.UnknownKindError
	assert.True(t, errors.As(err, &unknown))
}
