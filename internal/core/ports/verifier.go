package ports

// Verifier checks artifact integrity against a specification checksum.
//
//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=mocks/mock_verifier.go -package=mocks
type Verifier interface {
	// Verify recomputes the digest of the file at path and compares it to
	// the hex-encoded reference. A mismatch is returned as
	// domain.ErrChecksumMismatch.
	Verify(path, checksum string) error
}
