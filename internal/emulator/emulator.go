// Package emulator wires the CPU, PPU, bus, cartridge, joypad, and serial
// port into a runnable core, and implements the scheduling and debugger
// pause/resume model of spec §5.
//
// Grounded on the teacher's jeebie/core.go (the Emulator/DebuggerState
// harness), with the busy-wait debugger pause replaced by a blocking
// sync.Cond per design notes §9 ("Debugger pause... prefer a condition
// variable or single-permit semaphore so the emulation thread actually
// blocks").
package emulator

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/kaelstrom/gbcore/internal/bus"
	"github.com/kaelstrom/gbcore/internal/cartridge"
	"github.com/kaelstrom/gbcore/internal/cpu"
	"github.com/kaelstrom/gbcore/internal/events"
	"github.com/kaelstrom/gbcore/internal/joypad"
	"github.com/kaelstrom/gbcore/internal/serial"
	"github.com/kaelstrom/gbcore/internal/video"
)

// cyclesPerFrame is the DMG's fixed per-frame T-cycle budget (154 lines x
// 456 dots). advanceFrame counts frames by this budget alone; it does not
// consult PPU.FrameComplete.
const cyclesPerFrame = 70224

// DebuggerState is one of the four debugger modes of the teacher's harness,
// carried over unchanged (spec §9 names no replacement state machine, only
// a replacement blocking primitive).
type DebuggerState int

const (
	StateRunning DebuggerState = iota
	StatePaused
	StateStep
	StateStepFrame
)

// Emulator owns one LR35902 core: its bus, CPU, PPU, and the devices that
// do not belong to any one of those (joypad, serial).
type Emulator struct {
	Bus    *bus.Bus
	Hooks  *events.Bus
	CPU    *cpu.CPU
	PPU    *video.PPU
	Joypad *joypad.Joypad
	Serial *serial.Port

	cart *cartridge.Cartridge

	softFailBus bool

	mu             sync.Mutex
	cond           *sync.Cond
	state          DebuggerState
	stepRequested  bool
	frameRequested bool

	instructionCount uint64
	frameCount       uint64

	// loadGeneration increments every LoadCartridge call; a running worker
	// compares its captured generation each iteration and exits once it no
	// longer matches, implementing spec §5's cancellation ("running is
	// cleared; the worker joins").
	loadGeneration uint64
	running        bool
	workerDone     chan struct{}
}

// New constructs an Emulator with a fresh bus and all owned devices wired,
// but no cartridge loaded. softFailBus selects spec §7's "soft-fail" bus
// mode (unmapped access returns 0xFF / is dropped, instead of panicking).
func New(softFailBus bool) *Emulator {
	e := &Emulator{softFailBus: softFailBus}
	e.cond = sync.NewCond(&e.mu)
	e.buildCore()
	return e
}

func (e *Emulator) buildCore() {
	e.Bus = bus.New(e.softFailBus)
	e.Hooks = events.NewBus()
	e.Bus.OnMemRead = func(address uint16, value uint8) {
		e.Hooks.Emit(events.MemRead, events.MemReadEvent{Address: address, Value: value})
	}
	e.Bus.OnMemWrite = func(address uint16, old, new uint8) {
		e.Hooks.Emit(events.MemWrite, events.MemWriteEvent{Address: address, Old: old, New: new})
	}
	e.CPU = cpu.New(e.Bus, e.Hooks)
	e.PPU = video.New(e.Bus, e.Hooks, e.CPU)
	e.Joypad = joypad.New(e.Bus, e.CPU)
	e.Serial = serial.New(e.Bus, e.CPU)
	e.CPU.SetRunning(true)
}

// LoadBootROM maps bin over the reset vector, per spec §6.
func (e *Emulator) LoadBootROM(bin []byte) {
	e.CPU.LoadBootROM(bin)
}

// LoadCartridge parses data, cancels any in-flight emulation (spec §5
// "Cancellation"), rebuilds the bus and every device from scratch, attaches
// the new cartridge, and resets debugger state. The boot ROM, if any, is
// not automatically reloaded — callers that want one must call
// LoadBootROM again.
func (e *Emulator) LoadCartridge(data []byte) error {
	cart, err := cartridge.New(data)
	if err != nil {
		return fmt.Errorf("emulator: load cartridge: %w", err)
	}

	e.mu.Lock()
	e.loadGeneration++
	gen := e.loadGeneration
	wasRunning := e.running
	done := e.workerDone
	e.running = false
	e.state = StateRunning
	e.stepRequested = false
	e.frameRequested = false
	e.instructionCount = 0
	e.frameCount = 0
	e.cond.Broadcast() // wake a paused worker so it can observe cancellation
	e.mu.Unlock()

	if wasRunning && done != nil {
		<-done // the worker joins before we tear down its bus/devices
	}

	e.buildCore()
	cart.Attach(e.Bus, e.Hooks)
	e.cart = cart

	e.mu.Lock()
	if e.loadGeneration == gen {
		e.running = true
	}
	e.mu.Unlock()

	slog.Info("emulator: cartridge loaded", "mapper", cart.Mapper, "battery", cart.HasBattery)
	return nil
}

// Cartridge exposes the currently attached cartridge, or nil.
func (e *Emulator) Cartridge() *cartridge.Cartridge { return e.cart }

// Run starts the emulation loop on a new goroutine, advancing frames until
// LoadCartridge cancels this generation. It is the "optional background
// thread" of spec §5; the only state it shares with callers is the PPU's
// framebuffer and the debugger controls below.
func (e *Emulator) Run() {
	e.mu.Lock()
	gen := e.loadGeneration
	e.running = true
	done := make(chan struct{})
	e.workerDone = done
	e.mu.Unlock()

	go func() {
		defer close(done)
		for e.runOneFrame(gen) {
		}
	}()
}

// runOneFrame drives the core through one frame's worth of steps, honoring
// the debugger state machine, and reports whether the worker should keep
// running (false once gen has been superseded by a newer LoadCartridge).
func (e *Emulator) runOneFrame(gen uint64) bool {
	e.mu.Lock()
	for e.state == StatePaused {
		e.cond.Wait()
		if e.loadGeneration != gen {
			e.mu.Unlock()
			return false
		}
	}
	if e.loadGeneration != gen {
		e.mu.Unlock()
		return false
	}
	state := e.state
	e.mu.Unlock()

	switch state {
	case StateStep:
		e.mu.Lock()
		if !e.stepRequested {
			e.mu.Unlock()
			return true
		}
		e.stepRequested = false
		e.mu.Unlock()

		e.stepOnce()
		e.SetDebuggerState(StatePaused)
		return true

	case StateStepFrame:
		e.mu.Lock()
		requested := e.frameRequested
		if requested {
			e.frameRequested = false
		}
		e.mu.Unlock()
		if !requested {
			return true
		}
		e.advanceFrame(gen)
		e.SetDebuggerState(StatePaused)
		return true

	default: // StateRunning
		return e.advanceFrame(gen)
	}
}

// advanceFrame runs instructions until at least cyclesPerFrame T-cycles
// have elapsed, checking gen between instructions so a cartridge swap stops
// it promptly.
func (e *Emulator) advanceFrame(gen uint64) bool {
	total := 0
	for total < cyclesPerFrame {
		e.mu.Lock()
		if e.loadGeneration != gen {
			e.mu.Unlock()
			return false
		}
		e.mu.Unlock()

		total += e.stepOnce()
	}
	e.mu.Lock()
	e.frameCount++
	e.mu.Unlock()
	return true
}

// stepOnce executes exactly one instruction step plus its DMA/interrupt/
// timer/PPU bookkeeping, in the order spec §4.4 mandates: step, process
// DMA, handle interrupts, update timers, advance the PPU.
func (e *Emulator) stepOnce() int {
	cycles := e.CPU.Step()
	e.CPU.ProcessDMA(cycles)
	cycles += e.CPU.HandleInterrupts()
	e.CPU.UpdateTimers(cycles)
	e.PPU.Tick(cycles)

	e.mu.Lock()
	e.instructionCount++
	e.mu.Unlock()
	return cycles
}

// FrameBuffer exposes the PPU's output surface for an external renderer.
func (e *Emulator) FrameBuffer() *video.FrameBuffer { return e.PPU.FrameBuffer() }

// SetDebuggerState transitions the debugger state machine and wakes any
// worker blocked in Wait.
func (e *Emulator) SetDebuggerState(state DebuggerState) {
	e.mu.Lock()
	e.state = state
	e.cond.Broadcast()
	e.mu.Unlock()
}

// DebuggerState reports the current debugger mode.
func (e *Emulator) DebuggerState() DebuggerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// DebuggerPause blocks the worker at the next frame boundary check.
func (e *Emulator) DebuggerPause() { e.SetDebuggerState(StatePaused) }

// DebuggerResume wakes a paused worker back into normal scheduling.
func (e *Emulator) DebuggerResume() { e.SetDebuggerState(StateRunning) }

// DebuggerStepInstruction arms a single-instruction step and wakes the
// worker to perform it.
func (e *Emulator) DebuggerStepInstruction() {
	e.mu.Lock()
	e.stepRequested = true
	e.state = StateStep
	e.cond.Broadcast()
	e.mu.Unlock()
}

// DebuggerStepFrame arms a single-frame step and wakes the worker to
// perform it.
func (e *Emulator) DebuggerStepFrame() {
	e.mu.Lock()
	e.frameRequested = true
	e.state = StateStepFrame
	e.cond.Broadcast()
	e.mu.Unlock()
}

// InstructionCount and FrameCount report cumulative progress since the
// last LoadCartridge, for a status line or debugger HUD.
func (e *Emulator) InstructionCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.instructionCount
}

func (e *Emulator) FrameCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameCount
}

// PressKey and ReleaseKey forward to the joypad device, the external input
// surface named in spec §1.
func (e *Emulator) PressKey(key joypad.Key)   { e.Joypad.PressKey(key) }
func (e *Emulator) ReleaseKey(key joypad.Key) { e.Joypad.ReleaseKey(key) }
