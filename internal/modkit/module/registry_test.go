package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type backendPort interface{ BackendName() string }

type fixedBackend string

func (f fixedBackend) BackendName() string { return string(f) }

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, ok := PortsAs[backendPort]("insights")
	assert.False(t, ok)

	Register("insights", fixedBackend("clickhouse"))
	p, ok := PortsAs[backendPort]("insights")
	assert.True(t, ok)
	assert.Equal(t, "clickhouse", p.BackendName())

	_, ok = PortsAs[int]("insights")
	assert.False(t, ok)

	Register("insights", fixedBackend("postgres"))
	p, _ = PortsAs[backendPort]("insights")
	assert.Equal(t, "postgres", p.BackendName())

	Register("meta", nil)
	_, ok = PortsAs[backendPort]("meta")
	assert.False(t, ok)
}
