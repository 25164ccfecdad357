// Package checksum implements SHA-512 artifact verification.
package checksum

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"os"

	"go.trai.ch/zerr"

	"github.com/quarrypkg/quarry/internal/core/domain"
)

// Verifier implements ports.Verifier with a streaming SHA-512 digest. This
// is an integrity check against corrupted or tampered artifacts, not a
// secrecy mechanism.
type Verifier struct{}

// NewVerifier creates a Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify recomputes the SHA-512 digest of the file at path and compares it
// to the hex-encoded reference checksum. A mismatch is returned as
// domain.ErrChecksumMismatch.
func (v *Verifier) Verify(path, checksum string) error {
	want, err := hex.DecodeString(checksum)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid reference checksum"), "checksum", checksum)
	}
	if len(want) != sha512.Size {
		lenErr := zerr.With(zerr.New("invalid reference checksum length"), "expected_bytes", sha512.Size)
		return zerr.With(lenErr, "actual_bytes", len(want))
	}

	f, err := os.Open(path) //nolint:gosec // path is produced by the downloader
	if err != nil {
		return zerr.Wrap(err, "failed to open artifact")
	}
	defer func() { _ = f.Close() }()

	hasher := sha512.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return zerr.Wrap(err, "failed to read artifact")
	}
	got := hasher.Sum(nil)

	if !bytes.Equal(got, want) {
		mismatch := zerr.Wrap(domain.ErrChecksumMismatch, "artifact digest differs from the package checksum")
		mismatch = zerr.With(mismatch, "expected", checksum)
		return zerr.With(mismatch, "actual", hex.EncodeToString(got))
	}
	return nil
}
