package entrystore

import (
	"encoding/binary"
	"hash/crc32"
)

// Entry record: state(1B) | payload | crc32c(state|payload)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeRecord serializes an entry in the given state.
func EncodeRecord(state State, payload []byte) []byte {
	out := make([]byte, 0, 1+len(payload)+4)
	out = append(out, byte(state))
	out = append(out, payload...)
	var cb [4]byte
	binary.BigEndian.PutUint32(cb[:], crc32.Checksum(out, castagnoli))
	return append(out, cb[:]...)
}

// DecodeRecord parses a record produced by EncodeRecord. It reports false on
// truncated input, checksum mismatch or an unknown state.
func DecodeRecord(b []byte) (State, []byte, bool) {
	if len(b) < 5 {
		return 0, nil, false
	}
	body := b[:len(b)-4]
	if crc32.Checksum(body, castagnoli) != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return 0, nil, false
	}
	state := State(body[0])
	if state != StatePending && state != StateHeld {
		return 0, nil, false
	}
	return state, append([]byte(nil), body[1:]...), true
}
