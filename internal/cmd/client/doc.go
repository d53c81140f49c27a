// Package client provides the receiver commands of the `wireq` binary.
//
// The receiver plays the role of a wireQ consumer: it polls the server,
// honors Retry-After between polls and writes each payload to
// <output>/<sequence>.json.
//
// # Address configuration
//
// Flags default from the environment (and a .env file loaded by the
// binary): BASE_URL for the HTTP endpoint, WIREQ_OUTPUT_DIR for the target
// directory and WIREQ_GRPC_ADDR for the health check.
//
// Usage
//
//	wireq receive dequeue --base-url http://localhost:8080 --output ./out --once
//
//	# GET a batch, write every payload, then DELETE the receipt
//	wireq receive get-delete --output ./out --max-polls 10
//
//	wireq stats
//	wireq health --grpc 127.0.0.1:50051
//
// Notes
//
//   - A 429 answer is not an error: the receiver waits the advertised
//     Retry-After and polls again.
//   - In get-delete mode a failed write leaves the receipt unredeemed, so
//     its entries stay held and are not delivered again.
//   - --max-rps paces requests client side with a token bucket in addition
//     to the server's Retry-After.
package client
