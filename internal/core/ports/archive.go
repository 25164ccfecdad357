package ports

// Extractor unpacks a source artifact into a working directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=archive.go -destination=mocks/mock_archive.go -package=mocks
type Extractor interface {
	// Extract unpacks the archive into dest and returns the relative paths
	// of the regular files it wrote, in the order written.
	Extract(archive, dest string) ([]string, error)
}
