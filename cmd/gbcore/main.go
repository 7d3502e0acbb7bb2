// Command gbcore is a terminal front end for the core: it loads a ROM (and
// an optional boot ROM), drives the emulator on a background worker, and
// renders the framebuffer as block characters with tcell.
//
// Grounded on the teacher's main.go (urfave/cli flag parsing, tcell
// terminal renderer, frame-ticker render loop).
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"

	"github.com/kaelstrom/gbcore/internal/emulator"
	"github.com/kaelstrom/gbcore/internal/joypad"
	"github.com/kaelstrom/gbcore/internal/video"
)

const (
	scaleX = 2
	scaleY = 1

	frameTime = time.Second / 60
)

var shadeChars = []rune{'█', '▓', '▒', '░'}

// keyBindings maps terminal key events to joypad buttons, a fixed layout
// since there is no configuration surface in this preview front end.
var keyBindings = map[rune]joypad.Key{
	'w': joypad.Up,
	's': joypad.Down,
	'a': joypad.Left,
	'd': joypad.Right,
	'j': joypad.A,
	'k': joypad.B,
	'n': joypad.Select,
	'm': joypad.Start,
}

type terminalRenderer struct {
	screen  tcell.Screen
	emu     *emulator.Emulator
	running bool
}

func newTerminalRenderer(emu *emulator.Emulator) (*terminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("gbcore: init terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("gbcore: init terminal: %w", err)
	}
	return &terminalRenderer{screen: screen, emu: emu, running: true}, nil
}

func (t *terminalRenderer) Run() error {
	defer func() {
		slog.Info("gbcore: shutting down terminal")
		t.screen.Fini()
	}()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleInput()

	t.emu.Run()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for t.running {
		select {
		case <-ticker.C:
			t.render()
			t.screen.Show()
		case <-signals:
			t.running = false
			slog.Info("gbcore: received stop signal")
			return nil
		}
	}
	return nil
}

func (t *terminalRenderer) handleInput() {
	for t.running {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape {
				t.running = false
				return
			}
			if key, ok := keyBindings[ev.Rune()]; ok {
				t.emu.PressKey(key)
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

func (t *terminalRenderer) render() {
	fb := t.emu.FrameBuffer()

	t.screen.Clear()
	for y := 0; y < video.Height; y++ {
		for x := 0; x < video.Width; x++ {
			pixel := fb.Get(x, y)
			// pixel is 0xRRGGBBAA-shaped from colorful.RGB255; the R byte
			// alone identifies the shade since DMG output is monochrome.
			level := uint8(pixel >> 24)
			shadeIdx := 3 - level/64
			if shadeIdx > 3 {
				shadeIdx = 3
			}

			style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
			char := shadeChars[shadeIdx]
			screenX, screenY := x*scaleX, y*scaleY
			for sx := 0; sx < scaleX; sx++ {
				t.screen.SetContent(screenX+sx, screenY, char, nil, style)
			}
		}
	}
}

func main() {
	app := cli.NewApp()
	app.Name = "gbcore"
	app.Description = "A Game Boy / Game Boy Color emulation core"
	app.Usage = "gbcore [options] <ROM file>"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Path to a boot ROM image to run before the cartridge",
		},
		cli.BoolFlag{
			Name:  "soft-fail-bus",
			Usage: "Return 0xFF / drop writes on unmapped bus access instead of panicking",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("gbcore: fatal error", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("gbcore: no ROM path provided")
		}
	}

	romData, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("gbcore: read ROM: %w", err)
	}

	emu := emulator.New(c.Bool("soft-fail-bus"))

	if err := emu.LoadCartridge(romData); err != nil {
		return err
	}

	// LoadBootROM must come after LoadCartridge: LoadCartridge rebuilds the
	// bus and CPU from scratch, which would discard an overlay installed
	// beforehand.
	if bootPath := c.String("boot-rom"); bootPath != "" {
		bootData, err := os.ReadFile(bootPath)
		if err != nil {
			return fmt.Errorf("gbcore: read boot ROM: %w", err)
		}
		emu.LoadBootROM(bootData)
	}

	renderer, err := newTerminalRenderer(emu)
	if err != nil {
		return err
	}
	return renderer.Run()
}
