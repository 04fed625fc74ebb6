package module

import "sync"

// ports registered at boot, keyed by module name
var (
	mu  sync.RWMutex
	reg = map[string]any{}
)

// Register stores ports under name, replacing earlier ones
func Register(name string, ports any) {
	mu.Lock()
	reg[name] = ports
	mu.Unlock()
}

// PortsAs returns the ports of name asserted to T
func PortsAs[T any](name string) (T, bool) {
	mu.RLock()
	v, ok := reg[name]
	mu.RUnlock()
	out, ok2 := v.(T)
	return out, ok && ok2
}

// Reset empties the registry
func Reset() {
	mu.Lock()
	reg = map[string]any{}
	mu.Unlock()
}
