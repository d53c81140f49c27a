package entrystore

import "encoding/binary"

// Keyspace. Sequences are encoded big-endian so prefix iteration yields
// ascending sequence order.
const (
	prefixEntry   = "wq/entry/"   // entry record
	prefixPending = "wq/pending/" // pending index
	prefixHeld    = "wq/held/"    // held index
	keyMeta       = "wq/meta"     // next sequence
)

func seqKey(prefix string, seq uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], seq)
	return key
}

// EntryKey returns the record key for seq.
// Format: wq/entry/{seq BE}
func EntryKey(seq uint64) []byte { return seqKey(prefixEntry, seq) }

// PendingKey returns the pending index key for seq.
// Format: wq/pending/{seq BE}
func PendingKey(seq uint64) []byte { return seqKey(prefixPending, seq) }

// HeldKey returns the held index key for seq.
// Format: wq/held/{seq BE}
func HeldKey(seq uint64) []byte { return seqKey(prefixHeld, seq) }

// PendingPrefix is the scan prefix of the pending index.
func PendingPrefix() []byte { return []byte(prefixPending) }

// HeldPrefix is the scan prefix of the held index.
func HeldPrefix() []byte { return []byte(prefixHeld) }

// MetaKey holds the next sequence to assign.
func MetaKey() []byte { return []byte(keyMeta) }

// seqFromKey extracts the trailing sequence from an index or entry key.
func seqFromKey(prefix string, key []byte) (uint64, bool) {
	if len(key) != len(prefix)+8 || string(key[:len(prefix)]) != prefix {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(prefix):]), true
}
