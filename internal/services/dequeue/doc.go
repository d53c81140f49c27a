// Package dequeue implements the atomic pop-and-remove retrieval protocol.
//
// Delivery is at-most-once: entries are removed before the response is
// written, so a response lost in transit loses its entries.
package dequeue
