package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// DigestReader hashes bytes as they are read through it, so the digest is
// computed over exactly the stream persisted to the blob store, never from a
// re-read. If the write aborts partway, the partial digest is discarded along
// with the partial blob.
type DigestReader struct {
	r io.Reader
	h hash.Hash
}

func NewDigestReader(r io.Reader) *DigestReader {
	h := sha256.New()
	return &DigestReader{r: io.TeeReader(r, h), h: h}
}

func (d *DigestReader) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

// Sum returns the hex SHA-256 of everything read so far.
func (d *DigestReader) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
