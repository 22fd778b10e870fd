// Package ports defines the interfaces that connect the session core to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [ByteSource]: a connected stream the read loop pulls bytes from
//   - [Dialer]: opens a ByteSource for an address
//   - [Consumer]: receives decoded width, height and frame events
//   - [Logger]: structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them with TCP sockets, zerolog,
// PNG snapshots and so on.
package ports
