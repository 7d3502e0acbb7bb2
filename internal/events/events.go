// Package events implements the typed multicast hook registry described in
// spec §6 ("Debug hooks") and §9 ("Event bus"): a map from event tag to an
// ordered list of callbacks, used by external debugger/UI collaborators.
//
// Grounded on original_source/src/event.h (typed callback lists per
// event).
package events

// Tag identifies one kind of hook an external collaborator can subscribe
// to.
type Tag uint8

const (
	PreExec Tag = iota
	PostExec
	MemRead
	MemWrite
	BankChange
	RomUnmap
	Call
	Ret
	Jump
	JumpRelative
	DMAProgress
)

// PreExecEvent fires immediately before an instruction executes.
type PreExecEvent struct{ PC uint16 }

// PostExecEvent fires immediately after an instruction executes.
type PostExecEvent struct {
	PC     uint16
	Cycles int
}

// MemReadEvent fires on every bus read.
type MemReadEvent struct {
	Address uint16
	Value   uint8
}

// MemWriteEvent fires on every accepted bus write.
type MemWriteEvent struct {
	Address  uint16
	Old, New uint8
}

// BankChangeEvent fires whenever a mapper or WRAM bank-select register
// repoints a switching device, so disassembly caches can invalidate.
type BankChangeEvent struct {
	Region string
	Bank   int
}

// RomUnmapEvent fires when the boot ROM overlay is popped from the bus.
type RomUnmapEvent struct{}

// CallEvent, RetEvent, JumpEvent, JumpRelativeEvent mirror the
// on_call/on_ret/on_jump/on_jump_relative hooks of spec §6.
type CallEvent struct{ PC, SP, Target uint16 }

type RetEvent struct {
	PC, SP, Target uint16
	FromInterrupt  bool
}

type JumpEvent struct{ PC, SP, Target uint16 }

type JumpRelativeEvent struct {
	PC, SP uint16
	Offset int8
}

// DMAProgressEvent fires once per ProcessDMA call while an OAM transfer is
// in flight, letting an external debugger render transfer progress (spec
// §4.4 allows surfacing DMA-in-progress via a hook rather than enforcing
// OAM inaccessibility).
type DMAProgressEvent struct {
	Source      uint16
	BytesCopied int
	Complete    bool
}

// Handled lets a callback mark an event as consumed, stopping further
// propagation to later-registered callbacks for the same tag.
type Handled struct {
	stopped bool
}

// Stop marks the event handled, per spec §9 ("events propagate until a
// callback marks handled").
func (h *Handled) Stop() { h.stopped = true }

// Callback receives the tag-specific payload and a Handled it may Stop.
type Callback func(payload any, handled *Handled)

// Bus is the event multicast registry. The zero value is ready to use; all
// subscriptions are no-ops until On is called, matching spec §6
// ("Debug hooks (no-ops when disabled)").
type Bus struct {
	subscribers map[Tag][]Callback
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[Tag][]Callback)}
}

// On registers cb to run whenever tag is emitted.
func (b *Bus) On(tag Tag, cb Callback) {
	if b.subscribers == nil {
		b.subscribers = make(map[Tag][]Callback)
	}
	b.subscribers[tag] = append(b.subscribers[tag], cb)
}

// Emit dispatches payload to every callback registered for tag, in
// registration order, stopping early if a callback marks the event
// handled.
func (b *Bus) Emit(tag Tag, payload any) {
	if b == nil {
		return
	}
	var handled Handled
	for _, cb := range b.subscribers[tag] {
		cb(payload, &handled)
		if handled.stopped {
			return
		}
	}
}
