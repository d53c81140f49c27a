// Package getdelete implements the GET-then-DELETE retrieval protocol.
//
// GET moves entries from Pending to Held and issues a receipt. A DELETE with
// that receipt inside its lifetime removes exactly those entries. Receipts
// are single use; an expired receipt cannot be redeemed and its entries stay
// Held, so they are not delivered again.
package getdelete
