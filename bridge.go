// Package signalbridge sets up the host side of the store callback bridge: a
// SQLite-backed store whose handlers are registered with the bridge, and the
// store function table an engine is configured with.
package signalbridge

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/gwillem/signal-bridge/internal/bridge"
	"github.com/gwillem/signal-bridge/internal/engine"
	"github.com/gwillem/signal-bridge/internal/hoststore"
)

// DispatchSymbol is the name the host dispatch function is exported under
// when dispatch routing is enabled.
const DispatchSymbol = "signalbridge_dispatch"

// ErrResolverNotExporter is returned by Open when dispatch routing is enabled
// with a resolver the host dispatch function cannot be published into.
var ErrResolverNotExporter = errors.New("resolver cannot export the host dispatch function")

type (
	// Address identifies a remote party's device.
	Address = engine.Address
	// Engine drives store functions during session setup and message processing.
	Engine = engine.Engine
	// StoreFuncs is the store function table an engine is configured with.
	StoreFuncs = bridge.StoreFuncs
)

// Bridge owns a host store and the registry its handlers are installed on.
type Bridge struct {
	dbPath   string
	logger   *log.Logger
	registry *bridge.Registry
	resolver bridge.SymbolResolver
	dispatch bool
	native   bool

	// host holds the store handlers when dispatch routing is enabled; the
	// engine-facing registry then only carries the dispatch callback.
	host  *bridge.Registry
	store *hoststore.Store
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithDBPath overrides the database path.
// If not set, defaults to $XDG_DATA_HOME/signal-bridge/default.db.
func WithDBPath(path string) Option {
	return func(b *Bridge) { b.dbPath = path }
}

// WithLogger sets the logger for verbose output.
// If not set, logging is disabled.
func WithLogger(l *log.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithRegistry installs handlers on r instead of a private registry.
// Pass bridge.Default() to serve the package-level exported functions.
func WithRegistry(r *bridge.Registry) Option {
	return func(b *Bridge) { b.registry = r }
}

// WithResolver sets the symbol resolver used for by-name dispatch
// registration. Only meaningful together with WithDispatchRouting, and the
// resolver must be a bridge.SymbolExporter so the host dispatch function can
// be published under DispatchSymbol.
func WithResolver(sr bridge.SymbolResolver) Option {
	return func(b *Bridge) { b.resolver = sr }
}

// WithNativeBoundary installs the handlers on the process-wide registry and
// has StoreFuncs enter it through the native entry points, as a C engine
// configured with bridge.FunctionAddress would. It overrides WithRegistry.
// Only one such bridge should be open at a time.
func WithNativeBoundary() Option {
	return func(b *Bridge) { b.native = true }
}

// WithDispatchRouting routes every store call through the single dispatch
// callback instead of per-operation handlers.
func WithDispatchRouting() Option {
	return func(b *Bridge) { b.dispatch = true }
}

// Open opens the host store, creating a local identity on first use, and
// registers its handlers.
func Open(opts ...Option) (*Bridge, error) {
	b := &Bridge{}
	for _, o := range opts {
		o(b)
	}
	switch {
	case b.native:
		b.registry = bridge.Default()
	case b.registry == nil:
		b.registry = bridge.NewRegistry()
	}
	if b.dbPath == "" {
		b.dbPath = filepath.Join(hoststore.DefaultDataDir(), "default.db")
	}
	if b.logger != nil {
		bridge.SetLogger(b.logger)
	}

	st, err := hoststore.Open(b.dbPath)
	if err != nil {
		return nil, err
	}
	st.SetLogger(b.logger)
	b.store = st

	if err := b.ensureIdentity(); err != nil {
		st.Close()
		return nil, err
	}
	if err := b.install(); err != nil {
		st.Close()
		return nil, err
	}
	logf(b.logger, "bridge open: db=%s dispatch=%v native=%v", b.dbPath, b.dispatch, b.native)
	return b, nil
}

func (b *Bridge) ensureIdentity() error {
	ok, err := b.store.HasIdentity()
	if err != nil || ok {
		return err
	}
	key, err := engine.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("generate identity: %w", err)
	}
	regID := generateRegistrationID()
	if err := b.store.SetIdentity(key, regID); err != nil {
		return err
	}
	logf(b.logger, "created local identity (registration id %d)", regID)
	return nil
}

func (b *Bridge) install() error {
	if !b.dispatch {
		b.store.Register(b.registry)
		return nil
	}

	b.host = bridge.NewRegistry()
	b.store.Register(b.host)

	var sr bridge.SymbolResolver = bridge.NewSymbolTable()
	if b.resolver != nil {
		sr = b.resolver
	}
	exp, ok := sr.(bridge.SymbolExporter)
	if !ok {
		return fmt.Errorf("register dispatch: %T: %w", sr, ErrResolverNotExporter)
	}
	exp.Export(DispatchSymbol, b.host.Mux())
	b.registry.SetSymbolResolver(sr)
	if err := b.registry.RegisterDispatchByName(DispatchSymbol); err != nil {
		return fmt.Errorf("register dispatch: %w", err)
	}
	return nil
}

// StoreFuncs returns the store function table to configure an engine with.
func (b *Bridge) StoreFuncs() StoreFuncs {
	switch {
	case b.native && b.dispatch:
		return bridge.NativeDispatchStore()
	case b.native:
		return bridge.NativeStoreFuncs()
	case b.dispatch:
		return b.registry.DispatchStore()
	}
	return b.registry.StoreFuncs()
}

// Engine returns an engine configured with the bridge's store functions.
func (b *Bridge) Engine() *Engine {
	return engine.New(b.StoreFuncs(), nil)
}

// Registry returns the engine-facing registry.
func (b *Bridge) Registry() *bridge.Registry { return b.registry }

// Store returns the host store.
func (b *Bridge) Store() *hoststore.Store { return b.store }

// DBPath returns the database path in use.
func (b *Bridge) DBPath() string { return b.dbPath }

// Close clears the handlers this bridge installed and closes the store.
func (b *Bridge) Close() error {
	for _, op := range bridge.Ops() {
		if op.IsStore() != b.dispatch {
			b.registry.Register(op, nil)
		}
	}
	return b.store.Close()
}

// generateRegistrationID generates a random 14-bit registration ID (1-16384).
func generateRegistrationID() uint32 {
	var buf [4]byte
	rand.Read(buf[:])
	return binary.BigEndian.Uint32(buf[:])&0x3FFF + 1
}

// logf logs a message if the logger is non-nil.
func logf(logger *log.Logger, format string, args ...any) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
