// Package midiin delivers MIDI channel messages from hardware to a handler:
// raw byte streams such as serial MIDI go through a running-status Parser,
// and OS MIDI ports are read through gomidi's rtmidi driver.
package midiin

import "gitlab.com/gomidi/midi/v2"

// Handler receives decoded channel messages.
type Handler func(msg midi.Message)

// Parser decodes a raw MIDI byte stream into channel voice messages. It
// keeps running status, skips system exclusive payloads and ignores
// real-time and system common messages. The zero value is ready to use.
type Parser struct {
	status  byte
	data    [2]byte
	n       int
	sysex   bool
	decoded uint64
}

// Feed consumes one byte and returns a message when b completes one.
func (p *Parser) Feed(b byte) (midi.Message, bool) {
	switch {
	case b >= 0xF8:
		// Real-time bytes may appear anywhere and leave running status alone.
		return nil, false
	case b >= 0xF0:
		p.status = 0
		p.n = 0
		p.sysex = b == 0xF0
		return nil, false
	case b >= 0x80:
		p.status = b
		p.n = 0
		p.sysex = false
		return nil, false
	}

	if p.status == 0 || p.sysex {
		return nil, false
	}

	p.data[p.n] = b
	p.n++
	if p.n < dataLength(p.status) {
		return nil, false
	}

	p.n = 0
	p.decoded++
	if dataLength(p.status) == 1 {
		return midi.Message{p.status, p.data[0]}, true
	}
	return midi.Message{p.status, p.data[0], p.data[1]}, true
}

// Write feeds every byte of buf and calls fn for each completed message.
func (p *Parser) Write(buf []byte, fn Handler) {
	for _, b := range buf {
		if msg, ok := p.Feed(b); ok {
			fn(msg)
		}
	}
}

// Decoded returns the number of messages produced so far.
func (p *Parser) Decoded() uint64 { return p.decoded }

// Reset drops running status and any partial message.
func (p *Parser) Reset() {
	*p = Parser{decoded: p.decoded}
}

func dataLength(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}
