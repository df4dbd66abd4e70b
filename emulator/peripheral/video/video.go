/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

// Package video implements the BIOS video services on INT 10h over the
// CGA text buffer at B800 and the mode 13h frame buffer at A000.
package video

import (
	"bytes"
	"io"
	"log"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/rom"
	"github.com/andreas-jonsson/realxt/emulator/processor"
)

const (
	TextSegment     = 0xB800
	GraphicsSegment = 0xA000

	ModeText40 = 0x01
	ModeText80 = 0x03
	ModeVGA    = 0x13

	GraphicsWidth  = 320
	GraphicsHeight = 200

	DefaultAttribute = 0x07

	// DefaultRefreshInterval is the number of instructions between two
	// console updates.
	DefaultRefreshInterval = 10000

	numPages = 8
	maxRows  = 25
)

// BIOS data area.
var (
	bdaMode        = memory.NewPointer(rom.DataSegment, 0x49)
	bdaColumns     = memory.NewPointer(rom.DataSegment, 0x4A)
	bdaPageSize    = memory.NewPointer(rom.DataSegment, 0x4C)
	bdaPageStart   = memory.NewPointer(rom.DataSegment, 0x4E)
	bdaCursor      = memory.NewPointer(rom.DataSegment, 0x50)
	bdaCursorShape = memory.NewPointer(rom.DataSegment, 0x60)
	bdaActivePage  = memory.NewPointer(rom.DataSegment, 0x62)
	bdaCRTPort     = memory.NewPointer(rom.DataSegment, 0x63)
	bdaRows        = memory.NewPointer(rom.DataSegment, 0x84)
)

// Frame is a copy of the visible text page.
type Frame struct {
	Mode          byte
	Columns, Rows int
	Text          []byte
	CursorX       int
	CursorY       int
	CursorVisible bool
}

func (f *Frame) equal(o *Frame) bool {
	return f.Mode == o.Mode && f.Columns == o.Columns && f.Rows == o.Rows &&
		f.CursorX == o.CursorX && f.CursorY == o.CursorY &&
		f.CursorVisible == o.CursorVisible && bytes.Equal(f.Text, o.Text)
}

// Console receives the visible page when it changes.
type Console interface {
	Update(f *Frame)
}

type Device struct {
	// Console is optional.
	Console Console

	// Output receives every character written by the teletype and string
	// services.
	Output io.Writer

	RefreshInterval int

	cpu     processor.Processor
	crtReg  [0x100]byte
	crtAddr byte
	refresh byte
	elapsed int
	last    Frame
}

func (m *Device) Install(p processor.Processor) error {
	m.cpu = p
	if m.RefreshInterval <= 0 {
		m.RefreshInterval = DefaultRefreshInterval
	}
	if err := p.InstallInterruptHandler(0x10, m); err != nil {
		return err
	}
	return p.InstallIODevice(m, 0x3D0, 0x3DF)
}

func (m *Device) Name() string {
	return "CGA/VGA BIOS video services"
}

func (m *Device) Reset() {
	m.crtReg = [0x100]byte{}
	m.crtAddr, m.refresh, m.elapsed = 0, 0, 0
	m.last = Frame{}

	m.cpu.WriteWord(bdaCRTPort, 0x3D4)
	m.setMode(ModeText80, true)
}

func (m *Device) Step(cycles int) error {
	if m.elapsed += cycles; m.elapsed >= m.RefreshInterval {
		m.elapsed = 0
		m.Flush()
	}
	return nil
}

// Flush sends the visible page to the console if it changed.
func (m *Device) Flush() {
	if m.Console == nil {
		return
	}
	f := m.Frame()
	if f.equal(&m.last) {
		return
	}
	m.last = f
	m.Console.Update(&f)
}

// Close sends the final screen to the console.
func (m *Device) Close() error {
	m.Flush()
	return nil
}

// Frame returns a copy of the active text page.
func (m *Device) Frame() Frame {
	cols, rows := m.columns(), m.rows()
	page := m.activePage()
	x, y := m.cursor(page)

	f := Frame{
		Mode:          m.mode(),
		Columns:       cols,
		Rows:          rows,
		CursorX:       x,
		CursorY:       y,
		CursorVisible: m.cpu.ReadWord(bdaCursorShape)&0x2000 == 0,
	}
	if m.isText() {
		f.Text = make([]byte, cols*rows*2)
		base := m.cell(page, 0, 0)
		for i := range f.Text {
			f.Text[i] = m.cpu.ReadByte(base.Add(i))
		}
	}
	return f
}

func (m *Device) mode() byte {
	return m.cpu.ReadByte(bdaMode)
}

func (m *Device) isText() bool {
	return m.mode() <= ModeText80
}

// columns and rows read the BIOS data area, which programs can overwrite.
// Values outside the limits of the current mode are clamped.
func (m *Device) columns() int {
	limit := 80
	if mode := m.mode(); mode == 0x00 || mode == ModeText40 || mode == ModeVGA {
		limit = 40
	}
	if c := int(m.cpu.ReadWord(bdaColumns)); c > 0 && c < limit {
		return c
	}
	return limit
}

func (m *Device) rows() int {
	if r := int(m.cpu.ReadByte(bdaRows)) + 1; r < maxRows {
		return r
	}
	return maxRows
}

func (m *Device) activePage() int {
	return int(m.cpu.ReadByte(bdaActivePage))
}

func (m *Device) cursor(page int) (int, int) {
	pos := m.cpu.ReadWord(bdaCursor + memory.Pointer(page%numPages)*2)
	return int(pos & 0xFF), int(pos >> 8)
}

func (m *Device) setCursor(page, x, y int) {
	m.cpu.WriteWord(bdaCursor+memory.Pointer(page%numPages)*2, uint16(y)<<8|uint16(x&0xFF))
	if page == m.activePage() {
		pos := uint16(y*m.columns() + x)
		m.crtReg[0xE], m.crtReg[0xF] = byte(pos>>8), byte(pos)
	}
}

func (m *Device) cell(page, x, y int) memory.Pointer {
	offset := page%numPages*int(m.cpu.ReadWord(bdaPageSize)) + (y*m.columns()+x)*2
	return memory.NewPointer(TextSegment, uint16(offset))
}

func (m *Device) setMode(mode byte, clear bool) {
	var cols int
	switch mode {
	case 0x00, ModeText40:
		cols = 40
	case 0x02, ModeText80:
		cols = 80
	case ModeVGA:
		cols = 40
	default:
		log.Printf("Unsupported video mode: 0x%02X", mode)
		return
	}

	m.cpu.WriteByte(bdaMode, mode)
	m.cpu.WriteWord(bdaColumns, uint16(cols))
	m.cpu.WriteWord(bdaPageSize, uint16(cols*25*2+0x7FF)&^0x7FF)
	m.cpu.WriteWord(bdaPageStart, 0)
	m.cpu.WriteByte(bdaRows, 24)
	m.cpu.WriteWord(bdaCursorShape, 0x0607)
	m.cpu.WriteByte(bdaActivePage, 0)
	for page := 0; page < numPages; page++ {
		m.setCursor(page, 0, 0)
	}

	if !clear {
		return
	}
	if mode == ModeVGA {
		base := memory.NewPointer(GraphicsSegment, 0)
		for i := 0; i < GraphicsWidth*GraphicsHeight; i++ {
			m.cpu.WriteByte(base.Add(i), 0)
		}
		return
	}
	base := memory.NewPointer(TextSegment, 0)
	for i := 0; i < 0x4000; i += 2 {
		m.cpu.WriteWord(base.Add(i), DefaultAttribute<<8|' ')
	}
}

// scroll moves the window (x0,y0)-(x1,y1) of the active page by n lines,
// up when n is positive. Zero clears the window.
func (m *Device) scroll(n, x0, y0, x1, y1 int, attr byte) {
	page := m.activePage()
	cols, rows := m.columns(), m.rows()
	if x1 >= cols {
		x1 = cols - 1
	}
	if y1 >= rows {
		y1 = rows - 1
	}
	if x0 > x1 || y0 > y1 {
		return
	}

	height := y1 - y0 + 1
	if n == 0 || n >= height || -n >= height {
		n = height
	}
	blank := uint16(attr)<<8 | ' '

	move := func(y int) {
		src := y + n
		for x := x0; x <= x1; x++ {
			v := blank
			if src >= y0 && src <= y1 {
				v = m.cpu.ReadWord(m.cell(page, x, src))
			}
			m.cpu.WriteWord(m.cell(page, x, y), v)
		}
	}

	if n > 0 {
		for y := y0; y <= y1; y++ {
			move(y)
		}
		return
	}
	for y := y1; y >= y0; y-- {
		move(y)
	}
}

func (m *Device) putChar(page, x, y int, ch byte, attr *byte) {
	p := m.cell(page, x, y)
	m.cpu.WriteByte(p, ch)
	if attr != nil {
		m.cpu.WriteByte(p+1, *attr)
	}
}

// Teletype writes ch at the cursor of the active page and advances it,
// scrolling at the bottom of the screen.
func (m *Device) Teletype(ch byte) {
	m.teletype(m.activePage(), ch, nil)
}

func (m *Device) teletype(page int, ch byte, attr *byte) {
	if m.Output != nil {
		if _, err := m.Output.Write([]byte{ch}); err != nil {
			log.Print("Failed to write video output: ", err)
		}
	}

	cols, rows := m.columns(), m.rows()
	x, y := m.cursor(page)

	switch ch {
	case 0x07:
		return
	case '\b':
		if x > 0 {
			x--
		}
	case '\r':
		x = 0
	case '\n':
		y++
	default:
		if m.isText() {
			m.putChar(page, x, y, ch, attr)
		}
		x++
	}

	if x >= cols {
		x = 0
		y++
	}
	if y >= rows {
		y = rows - 1
		if m.isText() {
			m.scroll(1, 0, 0, cols-1, rows-1, DefaultAttribute)
		}
	}
	m.setCursor(page, x, y)
}

func (m *Device) pixel(x, y int) (memory.Pointer, bool) {
	if m.mode() != ModeVGA || x < 0 || x >= GraphicsWidth || y < 0 || y >= GraphicsHeight {
		return 0, false
	}
	return memory.NewPointer(GraphicsSegment, uint16(y*GraphicsWidth+x)), true
}

func (m *Device) HandleInterrupt(int) error {
	r := m.cpu.GetRegisters()
	switch r.AH() {
	case 0x00:
		m.setMode(r.AL()&0x7F, r.AL()&0x80 == 0)
	case 0x01:
		m.cpu.WriteWord(bdaCursorShape, r.CX())
	case 0x02:
		m.setCursor(int(r.BH()), int(r.DL()), int(r.DH()))
	case 0x03:
		x, y := m.cursor(int(r.BH()))
		r.SetDH(byte(y))
		r.SetDL(byte(x))
		r.SetCX(m.cpu.ReadWord(bdaCursorShape))
	case 0x05:
		if page := r.AL(); page < numPages {
			m.cpu.WriteByte(bdaActivePage, page)
			m.cpu.WriteWord(bdaPageStart, uint16(page)*m.cpu.ReadWord(bdaPageSize))
		}
	case 0x06, 0x07:
		n := int(r.AL())
		if r.AH() == 0x07 {
			n = -n
		}
		m.scroll(n, int(r.CL()), int(r.CH()), int(r.DL()), int(r.DH()), r.BH())
	case 0x08:
		x, y := m.cursor(int(r.BH()))
		r.SetAX(m.cpu.ReadWord(m.cell(int(r.BH()), x, y)))
	case 0x09, 0x0A:
		if !m.isText() {
			break
		}
		page := int(r.BH())
		x, y := m.cursor(page)
		attr := r.BL()
		pos := y*m.columns() + x
		for i := 0; i < int(r.CX()) && pos+i < m.columns()*m.rows(); i++ {
			cx, cy := (pos+i)%m.columns(), (pos+i)/m.columns()
			if r.AH() == 0x09 {
				m.putChar(page, cx, cy, r.AL(), &attr)
			} else {
				m.putChar(page, cx, cy, r.AL(), nil)
			}
		}
	case 0x0C:
		if p, ok := m.pixel(int(r.CX()), int(r.DX())); ok {
			c := r.AL()
			if c&0x80 != 0 {
				c = (c & 0x7F) ^ m.cpu.ReadByte(p)
			}
			m.cpu.WriteByte(p, c)
		}
	case 0x0D:
		r.SetAL(0)
		if p, ok := m.pixel(int(r.CX()), int(r.DX())); ok {
			r.SetAL(m.cpu.ReadByte(p))
		}
	case 0x0E:
		m.Teletype(r.AL())
	case 0x0F:
		r.SetAL(m.mode())
		r.SetAH(byte(m.columns()))
		r.SetBH(byte(m.activePage()))
	case 0x13:
		m.writeString(r)
	case 0x1A:
		if r.AL() == 0 {
			// VGA with color display.
			r.SetAL(0x1A)
			r.SetBX(0x0008)
		}
	default:
		log.Printf("Unsupported video service: AH=0x%02X", r.AH())
		return processor.ErrInterruptNotHandled
	}
	return nil
}

// writeString implements AH=13h. AL bit 0 moves the cursor, bit 1 selects
// character and attribute pairs.
func (m *Device) writeString(r *processor.Registers) {
	page := int(r.BH())
	sx, sy := m.cursor(page)
	m.setCursor(page, int(r.DL()), int(r.DH()))

	str := memory.NewPointer(r.ES(), r.BP())
	attr := r.BL()
	for i := 0; i < int(r.CX()); i++ {
		ch := m.cpu.ReadByte(str)
		str = str.Add(1)
		if r.AL()&2 != 0 {
			attr = m.cpu.ReadByte(str)
			str = str.Add(1)
		}
		a := attr
		m.teletype(page, ch, &a)
	}

	if r.AL()&1 == 0 {
		m.setCursor(page, sx, sy)
	}
}

func (m *Device) In(port uint16) byte {
	switch port {
	case 0x3D1, 0x3D3, 0x3D5, 0x3D7:
		return m.crtReg[m.crtAddr]
	case 0x3DA:
		// Alternate retrace bits for programs that poll them.
		m.refresh ^= 0x9
		return m.refresh
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
	switch port {
	case 0x3D0, 0x3D2, 0x3D4, 0x3D6:
		m.crtAddr = data
	case 0x3D1, 0x3D3, 0x3D5, 0x3D7:
		m.crtReg[m.crtAddr] = data
		if m.crtAddr == 0xE || m.crtAddr == 0xF {
			pos := int(m.crtReg[0xE])<<8 | int(m.crtReg[0xF])
			if cols := m.columns(); cols > 0 {
				m.cpu.WriteWord(bdaCursor+memory.Pointer(m.activePage())*2, uint16(pos/cols)<<8|uint16(pos%cols))
			}
		}
	}
}
