package bridge

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ebitengine/purego"
)

// SymbolResolver turns an exported symbol name into a dispatch handler. It is
// consulted once, when RegisterDispatchByName runs.
type SymbolResolver interface {
	Resolve(name string) (DispatchFunc, error)
}

// SymbolTable is an in-process table of named dispatch handlers. Hosts export
// their handlers into it during setup and register them by name afterwards.
type SymbolTable struct {
	mu      sync.RWMutex
	symbols map[string]DispatchFunc
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: map[string]DispatchFunc{}}
}

// Export publishes fn under name, replacing any earlier export. Exporting a
// nil fn removes the name.
func (t *SymbolTable) Export(name string, fn DispatchFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fn == nil {
		delete(t.symbols, name)
		return
	}
	t.symbols[name] = fn
}

func (t *SymbolTable) Resolve(name string) (DispatchFunc, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.symbols[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrSymbolNotFound)
	}
	return fn, nil
}

// Names returns the exported names, sorted.
func (t *SymbolTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SymbolExporter is a SymbolResolver that hosts can publish dispatch
// functions into.
type SymbolExporter interface {
	SymbolResolver
	Export(name string, fn DispatchFunc)
}

// DlsymResolver resolves names in the process's dynamic symbol table, or in
// Library when it is set. A symbol must be a C function int32_t(uintptr_t).
type DlsymResolver struct {
	Library string

	once   sync.Once
	handle uintptr
	err    error
}

func (d *DlsymResolver) open() (uintptr, error) {
	d.once.Do(func() {
		if d.Library == "" {
			d.handle = purego.RTLD_DEFAULT
			return
		}
		d.handle, d.err = purego.Dlopen(d.Library, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	})
	return d.handle, d.err
}

func (d *DlsymResolver) Resolve(name string) (DispatchFunc, error) {
	h, err := d.open()
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", d.Library, err)
	}
	addr, err := purego.Dlsym(h, name)
	if err != nil {
		return nil, fmt.Errorf("%q: %w (%v)", name, ErrSymbolNotFound, err)
	}
	fn := nativeDispatch(addr)
	if fn == nil {
		return nil, fmt.Errorf("%q resolves to the trampoline: %w", name, ErrSymbolNotFound)
	}
	return fn, nil
}
