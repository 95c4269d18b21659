package app

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/picorope/internal/engine/rope"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.Record("render", time.Millisecond, nil)
	m.Record("render", time.Millisecond, nil)
	m.Record("render", time.Millisecond, errors.New("x"))

	var buf bytes.Buffer
	require.NoError(t, m.WriteMetrics(&buf))
	out := buf.String()

	assert.Contains(t, out, `picorope_operations_total{op="render",result="ok"} 2`)
	assert.Contains(t, out, `picorope_operations_total{op="render",result="error"} 1`)
	assert.Contains(t, out, `picorope_operation_duration_seconds_count{op="render"} 3`)
}

func TestRopeCollector(t *testing.T) {
	m := NewMetrics()

	r := rope.FromString("abc")
	defer r.Release()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	byName := make(map[string]int)
	for _, mf := range families {
		byName[mf.GetName()] = len(mf.GetMetric())
	}
	assert.Equal(t, 2, byName["picorope_nodes_allocated_total"])
	assert.Equal(t, 2, byName["picorope_nodes_freed_total"])
	assert.Equal(t, 2, byName["picorope_live_nodes"])
	assert.Equal(t, 1, byName["picorope_flattens_total"])
	assert.Equal(t, 1, byName["picorope_units_copied_total"])

	var buf bytes.Buffer
	require.NoError(t, m.WriteMetrics(&buf))
	assert.Contains(t, buf.String(), "# TYPE picorope_live_nodes gauge")
	assert.Contains(t, buf.String(), `picorope_nodes_freed_total{kind="link"}`)
}
