// Package pbmsg defines the progress events the decryption engine emits
// while it works, so that callers can render live output without the engine
// knowing anything about the presentation layer.
package pbmsg

// BlockData carries a snapshot of per-block state: the bytes involved, the
// byte position they refer to, and the index of the block being worked on.
// Bytes is always a copy; consumers may retain it.
type BlockData struct {
	Bytes []byte
	Index int
	Block int
}

// Message is the closed set of progress events: Payload, Intermediate,
// Plain and Done.
type Message interface {
	message()
}

// Payload reports the forged previous-block bytes currently being tested
// against the oracle. Payload events are presentation-only: sinks may drop
// or coalesce them.
type Payload struct {
	BlockData
}

// Intermediate reports that the intermediate bytes of a block gained a newly
// solved byte at Index, or, after the final-block pad sweep, the whole pad
// region starting at Index. Bytes holds the whole intermediate block so far.
type Intermediate struct {
	BlockData
}

// Plain reports that the plaintext bytes of a block gained a newly solved
// byte at Index, or, after the final-block pad sweep, the whole pad region
// starting at Index. Bytes holds the whole plaintext block so far.
type Plain struct {
	BlockData
}

// Done reports that the engine has finished all blocks, successfully or not.
// It is emitted exactly once per decryption.
type Done struct{}

func (Payload) message()      {}
func (Intermediate) message() {}
func (Plain) message()        {}
func (Done) message()         {}

// Sink receives progress events. The engine calls it from multiple worker
// goroutines concurrently; implementations must be safe for that.
type Sink func(Message)

// Discard is a Sink that drops every event.
func Discard(Message) {}
