// Package apiclient talks to the remote Applyme API: authenticated JSON calls,
// tolerant body decoding and the mapping of failures to user-facing errors.
package apiclient
