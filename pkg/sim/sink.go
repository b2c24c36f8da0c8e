package sim

import "github.com/SmitUplenchwar2687/Pacer/internal/sink"

// Sink publishes batches of encoded records.
type Sink = sink.Sink
