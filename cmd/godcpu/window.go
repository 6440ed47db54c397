//go:build !headless

// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/lassandro/godcpu/pkg/devices"
)

const windowBorder = 8

// window presents the display and feeds the keyboard. Emulation runs on
// the ebiten update goroutine so the machine is never shared.
type window struct {
	emu *emulator

	frame   *ebiten.Image
	pixels  []byte
	border  color.RGBA
	pixelMu sync.Mutex

	keys   []ebiten.Key
	input  keyInput
	status bool
	err    error

	clipboardOnce sync.Once
	clipboardOK   bool
}

// Present copies a rendered frame. It is called from Tick inside Update.
func (w *window) Present(pixels []uint32, width int) {
	w.pixelMu.Lock()
	defer w.pixelMu.Unlock()

	if len(w.pixels) != len(pixels)*4 {
		w.pixels = make([]byte, len(pixels)*4)
	}

	for i, rgb := range pixels {
		w.pixels[i*4+0] = byte(rgb >> 16)
		w.pixels[i*4+1] = byte(rgb >> 8)
		w.pixels[i*4+2] = byte(rgb)
		w.pixels[i*4+3] = 0xFF
	}
}

func (w *window) paste() {
	w.clipboardOnce.Do(func() {
		w.clipboardOK = clipboard.Init() == nil
	})

	if !w.clipboardOK {
		log.Warn("clipboard unavailable")
		return
	}

	for _, code := range pasteCodes(clipboard.Read(clipboard.FmtText)) {
		w.emu.keyboard.KeyDown(code)
		w.emu.keyboard.KeyUp(code)
	}
}

func (w *window) handleInput() {
	kb := w.emu.keyboard

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)

	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		w.paste()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		w.emu.quickSave()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		w.emu.quickLoad()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		w.status = !w.status
	}

	// Characters no mapped key produces have no release.
	if !ctrl {
		for _, code := range typedCodes(ebiten.AppendInputChars(nil)) {
			kb.KeyDown(code)
			kb.KeyUp(code)
		}
	}

	w.keys = inpututil.AppendJustPressedKeys(w.keys[:0])
	for _, key := range w.keys {
		if code, ok := w.input.press(key, shift); ok {
			kb.KeyDown(code)
		}
	}

	w.keys = inpututil.AppendJustReleasedKeys(w.keys[:0])
	for _, key := range w.keys {
		if code, ok := w.input.release(key); ok {
			kb.KeyUp(code)
		}
	}
}

func (w *window) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	w.handleInput()

	if err := w.emu.sched.Run(); err != nil {
		w.err = err
		return ebiten.Termination
	}

	rgb := w.emu.display.BorderColor(&w.emu.mc)
	w.border = color.RGBA{byte(rgb >> 16), byte(rgb >> 8), byte(rgb), 0xFF}

	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	screen.Fill(w.border)

	if w.frame == nil {
		w.frame = ebiten.NewImage(devices.DISPLAY_WIDTH, devices.DISPLAY_HEIGHT)
	}

	w.pixelMu.Lock()
	ready := w.pixels != nil
	if ready {
		w.frame.WritePixels(w.pixels)
	}
	w.pixelMu.Unlock()

	if ready {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(windowBorder, windowBorder)
		op.GeoM.Scale(float64(scalevar), float64(scalevar))
		screen.DrawImage(w.frame, op)
	}

	if w.status {
		mc := &w.emu.mc
		line := fmt.Sprintf(
			"PC %04X SP %04X IA %04X queued %d",
			mc.State.Program,
			mc.State.Stack,
			mc.State.IntAddr,
			len(mc.Interrupts),
		)
		text.Draw(screen, line, basicfont.Face7x13, 4, 13, color.White)
	}
}

func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return (devices.DISPLAY_WIDTH + windowBorder*2) * scalevar,
		(devices.DISPLAY_HEIGHT + windowBorder*2) * scalevar
}

func runWindow(emu *emulator) int {
	if scalevar < 1 {
		scalevar = 1
	}

	w := &window{emu: emu}
	emu.display.Sink = w

	width, height := w.Layout(0, 0)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle("godcpu")

	if err := ebiten.RunGame(w); err != nil {
		log.WithError(err).Error("window failed")
		return 1
	}

	if w.err != nil {
		logDecodeError(emu, w.err)
		return 1
	}

	return 0
}
