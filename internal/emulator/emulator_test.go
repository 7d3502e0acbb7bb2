package emulator

import (
	"testing"
	"time"

	"github.com/kaelstrom/gbcore/internal/addr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildROM mirrors cartridge_test.go's header construction; emulator tests
// only need a loadable ROM_ONLY image with known opcode bytes at 0x0100,
// where the boot ROM (none here) would have left PC.
func buildROM(program []byte) []byte {
	data := make([]byte, 0x8000)
	data[0x147] = 0x00 // ROM_ONLY
	data[0x148] = 0x00 // 2 banks
	data[0x149] = 0x00 // no RAM
	copy(data[0x0100:], program)
	return data
}

func TestLoadCartridgeAttachesAndRunsFromEntryPoint(t *testing.T) {
	e := New(false)
	require.NoError(t, e.LoadCartridge(buildROM([]byte{0x00, 0x00, 0x76}))) // NOP, NOP, HALT

	e.CPU.Registers().SetPC(0x0100)
	for i := 0; i < 3; i++ {
		e.stepOnce()
	}

	assert.True(t, e.CPU.IsHalted())
}

func TestRunProducesFramesAndCanBePaused(t *testing.T) {
	e := New(false)
	require.NoError(t, e.LoadCartridge(buildROM([]byte{0x00, 0xC3, 0x00, 0x01}))) // NOP; JP 0x0100
	e.CPU.Registers().SetPC(0x0100)
	e.Bus.Write(addr.LCDC, 0x91)

	e.Run()
	time.Sleep(30 * time.Millisecond)
	e.DebuggerPause()
	time.Sleep(5 * time.Millisecond)

	frames := e.FrameCount()
	assert.Greater(t, e.InstructionCount(), uint64(0))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frames, e.FrameCount(), "a paused worker must not keep advancing frames")

	e.DebuggerResume()
	time.Sleep(10 * time.Millisecond)
	e.DebuggerPause()
}

func TestLoadCartridgeCancelsRunningWorker(t *testing.T) {
	e := New(false)
	require.NoError(t, e.LoadCartridge(buildROM([]byte{0x00, 0xC3, 0x00, 0x01})))
	e.CPU.Registers().SetPC(0x0100)
	e.Bus.Write(addr.LCDC, 0x91)
	e.Run()
	time.Sleep(10 * time.Millisecond)

	oldCPU := e.CPU
	require.NoError(t, e.LoadCartridge(buildROM([]byte{0x76}))) // HALT

	assert.NotSame(t, oldCPU, e.CPU, "a fresh cartridge load rebuilds the core from scratch")
	assert.Equal(t, uint64(0), e.InstructionCount(), "counters reset on cartridge load")
}

func TestDebuggerStepInstructionExecutesExactlyOne(t *testing.T) {
	e := New(false)
	require.NoError(t, e.LoadCartridge(buildROM([]byte{0x00, 0x00, 0x00})))
	e.CPU.Registers().SetPC(0x0100)
	e.Bus.Write(addr.LCDC, 0x91)

	e.SetDebuggerState(StatePaused)
	e.Run()

	e.DebuggerStepInstruction()
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, uint64(1), e.InstructionCount())
	assert.Equal(t, StatePaused, e.DebuggerState())

	e.DebuggerPause()
}
