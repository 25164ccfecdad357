package domain

// Progress is one download progress event. Total is -1 when the source did
// not announce a content length.
type Progress struct {
	Package string
	Bytes   int64
	Total   int64
}
