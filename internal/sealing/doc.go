// Package sealing encrypts sensitive lab-record fields before they are stored.
//
// Each field gets its own AES-256-GCM key derived with HKDF-SHA256 from the
// master key and a random salt; the salt and nonce are returned as metadata to
// be stored next to the row. A disabled Sealer passes values through and
// reports unencrypted metadata.
package sealing
