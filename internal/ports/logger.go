package ports

import "github.com/bft-labs/rdstream/pkg/log"

// Logger is the structured logger every component accepts.
type Logger = log.Logger

// Field is a structured logging key-value pair.
type Field = log.Field

// Field constructors re-exported so internal packages depend on ports only.
var (
	String   = log.String
	Int      = log.Int
	Uint32   = log.Uint32
	Uint64   = log.Uint64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
