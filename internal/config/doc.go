// Package config defines the mock server and receiver configuration.
//
// Resolution order, lowest to highest precedence:
//
//  1. Default()
//  2. a JSON or YAML file passed to Load
//  3. variables from .env files (LoadDotEnv) and the process environment
//     (FromEnv), using the same names as the wireQ reference setup:
//     NUMBER_OF_FILES, MAX_ITEMS_RETURNED, RETRY_AFTER,
//     RETRY_AFTER_MORE_DATA, RETRY_AFTER_TOO_MANY_REQUESTS,
//     MAX_REQUESTS_PER_MINUTE, WIREQ_RECEIPT_LIFETIME_DURATION, PORT
//  4. command line flags, applied by the cmd packages
//
// Call Validate after the overlay.
package config
