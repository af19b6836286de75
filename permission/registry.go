package permission

import (
	"errors"
	"sync"
)

// MaxBits is the number of capabilities a Registry can hold.
const MaxBits = 64

var (
	ErrFrozen        = errors.New("registry frozen")
	ErrEmptyName     = errors.New("name cannot be empty")
	ErrDuplicate     = errors.New("already registered")
	ErrLimitExceeded = errors.New("capability limit exceeded")
	ErrUnknownName   = errors.New("capability not registered")
)

// Registry maps capability names to bit positions. Bits are assigned in
// registration order and never change.
type Registry struct {
	mu        sync.RWMutex
	nameToBit map[string]int
	bitToName [MaxBits]string
	frozen    bool
}

func NewRegistry() *Registry {
	return &Registry{nameToBit: make(map[string]int)}
}

// Register assigns the next free bit to name and returns it.
func (r *Registry) Register(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return -1, ErrFrozen
	}
	if name == "" {
		return -1, ErrEmptyName
	}
	if _, exists := r.nameToBit[name]; exists {
		return -1, ErrDuplicate
	}

	next := len(r.nameToBit)
	if next >= MaxBits {
		return -1, ErrLimitExceeded
	}
	r.nameToBit[name] = next
	r.bitToName[next] = name
	return next, nil
}

// Bit returns the bit for name, or false if it is not registered.
func (r *Registry) Bit(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bit, ok := r.nameToBit[name]
	return bit, ok
}

// Name returns the capability at bit, or false if the bit is unassigned.
func (r *Registry) Name(bit int) (string, bool) {
	if bit < 0 || bit >= MaxBits {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name := r.bitToName[bit]
	return name, name != ""
}

// Names lists the capabilities in m in bit order.
func (r *Registry) Names(m Mask64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, bit := range m.Bits() {
		if name := r.bitToName[bit]; name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Freeze stops further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nameToBit)
}
