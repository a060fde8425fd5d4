package entity

type Document struct {
	Id               string
	Title            string
	ChunksCreated    int
	LinksExtracted   int
	ImagesExtracted  int
	ProcessingTimeMs float64
}
