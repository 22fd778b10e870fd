// Package domain contains the core value types and errors for rdstream.
//
// It has no dependencies on transport, logging or configuration and holds
// only the rules every other layer agrees on.
//
// # Types
//
//   - [Dimensions]: the screen size announced in the handshake
//   - [FrameEvent]: one decoded payload of raw RGB pixels
//   - [SessionStats]: counters describing a running session
package domain
