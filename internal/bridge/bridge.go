// Package bridge lets a host that cannot construct native function values act
// as the persistence backend of the protocol engine.
//
// The engine is configured once with the addresses of fixed-signature store
// functions (see Exports). Each of those adapters looks up the handler the host
// registered for its operation, repacks the engine's arguments into the
// simplified handler shape, and returns the handler's status unchanged. The
// generic Dispatch operation goes through a single trampoline whose handler can
// be registered by value, by address-sized handle, or by symbol name.
//
// Handlers are registered once during host setup and stay active until they
// are replaced. The bridge never owns or dereferences engine pointers.
package bridge
