// Package entrystore keeps the ordered set of wire entries and their
// delivery state on top of pebblestore.
//
// Entries move Pending -> Removed (dequeue) or Pending -> Held -> Removed
// (get/delete). A Removed entry is deleted from the keyspace and never
// returned again. Sequences start at 0 and are assigned by Append in
// insertion order; TakeNext always returns the lowest Pending sequences.
//
// Keyspace:
//
//	wq/entry/{seq}    record: state | payload | crc32c
//	wq/pending/{seq}  pending index
//	wq/held/{seq}     held index
//	wq/meta           next sequence
package entrystore
