package scanner

// UTF-8 validation is a table-driven DFA whose state is the only value carried
// from one lane to the next. Lanes that are pure ASCII while the DFA is idle
// are skipped without touching the tables.

const (
	utf8Accept uint8 = iota
	utf8Need1
	utf8Need2
	utf8Need3
	utf8AfterE0 // next byte in A0..BF
	utf8AfterED // next byte in 80..9F
	utf8AfterF0 // next byte in 90..BF
	utf8AfterF4 // next byte in 80..8F
	utf8Reject
)

// Byte classes: ASCII, three continuation ranges, then the lead bytes.
const (
	u8ASCII uint8 = iota
	u8Cont80
	u8Cont90
	u8ContA0
	u8Lead2
	u8LeadE0
	u8Lead3
	u8LeadED
	u8LeadF0
	u8Lead4
	u8LeadF4
	u8Invalid
	u8Classes
)

var utf8Class = buildUTF8Class()

func buildUTF8Class() [256]uint8 {
	var t [256]uint8
	for c := 0; c < 256; c++ {
		switch {
		case c < 0x80:
			t[c] = u8ASCII
		case c < 0x90:
			t[c] = u8Cont80
		case c < 0xa0:
			t[c] = u8Cont90
		case c < 0xc0:
			t[c] = u8ContA0
		case c < 0xc2:
			t[c] = u8Invalid
		case c < 0xe0:
			t[c] = u8Lead2
		case c == 0xe0:
			t[c] = u8LeadE0
		case c == 0xed:
			t[c] = u8LeadED
		case c < 0xf0:
			t[c] = u8Lead3
		case c == 0xf0:
			t[c] = u8LeadF0
		case c < 0xf4:
			t[c] = u8Lead4
		case c == 0xf4:
			t[c] = u8LeadF4
		default:
			t[c] = u8Invalid
		}
	}
	return t
}

const rj = utf8Reject

var utf8Trans = [utf8Reject + 1][u8Classes]uint8{
	//           ASCII       80..8F     90..9F     A0..BF     C2..DF     E0           E1..EF     ED           F0           F1..F3     F4           invalid
	utf8Accept:  {utf8Accept, rj, rj, rj, utf8Need1, utf8AfterE0, utf8Need2, utf8AfterED, utf8AfterF0, utf8Need3, utf8AfterF4, rj},
	utf8Need1:   {rj, utf8Accept, utf8Accept, utf8Accept, rj, rj, rj, rj, rj, rj, rj, rj},
	utf8Need2:   {rj, utf8Need1, utf8Need1, utf8Need1, rj, rj, rj, rj, rj, rj, rj, rj},
	utf8Need3:   {rj, utf8Need2, utf8Need2, utf8Need2, rj, rj, rj, rj, rj, rj, rj, rj},
	utf8AfterE0: {rj, rj, rj, utf8Need1, rj, rj, rj, rj, rj, rj, rj, rj},
	utf8AfterED: {rj, utf8Need1, utf8Need1, rj, rj, rj, rj, rj, rj, rj, rj, rj},
	utf8AfterF0: {rj, rj, utf8Need2, utf8Need2, rj, rj, rj, rj, rj, rj, rj, rj},
	utf8AfterF4: {rj, utf8Need2, rj, rj, rj, rj, rj, rj, rj, rj, rj, rj},
	utf8Reject:  {rj, rj, rj, rj, rj, rj, rj, rj, rj, rj, rj, rj},
}

// utf8State is the carry between lanes: the DFA state and the offset of the
// lead byte of the sequence in progress.
type utf8State struct {
	state uint8
	lead  int
}

// feed runs raw (starting at input offset base) through the DFA. It returns
// the offset of the first invalid sequence, or -1.
func (u *utf8State) feed(raw []byte, base int) int {
	if u.state == utf8Accept && isASCII(raw) {
		return -1
	}
	st := u.state
	for i, c := range raw {
		prev := st
		st = utf8Trans[st][utf8Class[c]]
		switch {
		case st == utf8Reject:
			off := base + i
			if prev != utf8Accept {
				off = u.lead
			}
			u.state = utf8Accept
			return off
		case prev == utf8Accept && st != utf8Accept:
			u.lead = base + i
		}
	}
	u.state = st
	return -1
}

// pending returns the offset of a sequence cut off by the end of input, or -1.
func (u *utf8State) pending() int {
	if u.state != utf8Accept {
		return u.lead
	}
	return -1
}

// validUTF8 runs the DFA over a complete buffer.
func validUTF8(b []byte) int {
	var u utf8State
	if off := u.feed(b, 0); off >= 0 {
		return off
	}
	return u.pending()
}
