package permission

import (
	"fmt"
	"sync"
)

// RoleManager holds the capability mask of each role. Configure it during
// initialization, then Freeze it.
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string]Mask64
	frozen bool
}

func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{
		registry: registry,
		roles:    make(map[string]Mask64),
	}
}

// RegisterRole grants role the named capabilities. Every capability must
// already be registered.
func (rm *RoleManager) RegisterRole(role string, capabilities []string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.frozen {
		return ErrFrozen
	}
	if role == "" {
		return ErrEmptyName
	}
	if _, exists := rm.roles[role]; exists {
		return fmt.Errorf("role %q: %w", role, ErrDuplicate)
	}

	var mask Mask64
	for _, name := range capabilities {
		bit, ok := rm.registry.Bit(name)
		if !ok {
			return fmt.Errorf("role %q: %w: %s", role, ErrUnknownName, name)
		}
		mask.Set(bit)
	}
	rm.roles[role] = mask
	return nil
}

// Mask returns role's capabilities, or false for an unknown role.
func (rm *RoleManager) Mask(role string) (Mask64, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	mask, ok := rm.roles[role]
	return mask, ok
}

// Allows reports whether role holds capability. Unknown roles and
// capabilities are never allowed.
func (rm *RoleManager) Allows(role, capability string) bool {
	bit, ok := rm.registry.Bit(capability)
	if !ok {
		return false
	}
	mask, ok := rm.Mask(role)
	return ok && mask.Has(bit)
}

// Capabilities lists role's capabilities in registration order.
func (rm *RoleManager) Capabilities(role string) []string {
	mask, ok := rm.Mask(role)
	if !ok {
		return nil
	}
	return rm.registry.Names(mask)
}

func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.frozen = true
}

func (rm *RoleManager) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.roles)
}
