package domain

import "time"

// SessionStats is a point-in-time snapshot of a session's counters.
type SessionStats struct {
	ID            string        `json:"id"`
	RemoteAddr    string        `json:"remote_addr,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Uptime        time.Duration `json:"uptime"`
	BytesReceived uint64        `json:"bytes_received"`
	Reads         uint64        `json:"reads"`
	Buffered      int           `json:"buffered"`
	Payloads      uint64        `json:"payloads"`
	RawFrames     uint64        `json:"raw_frames"`
	Dimensions    Dimensions    `json:"dimensions"`
	ParserState   string        `json:"parser_state"`
}
