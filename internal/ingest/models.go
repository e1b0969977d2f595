package ingest

type Record struct {
	ID           string `json:"id"`
	Album        string `json:"album"`
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	SizeBytes    int64  `json:"sizeBytes"`
	Path         string `json:"path"`
	ContentType  string `json:"contentType"`
	CreatedAt    int64  `json:"createdAt"`
}

type AlbumSummary struct {
	Album     string `json:"album"`
	FileCount int    `json:"fileCount"`
	SizeBytes int64  `json:"sizeBytes"`
}

type StatusResponse struct {
	Status    string `json:"status"`
	UploadDir string `json:"uploadDir"`
}

type AlbumsResponse struct {
	Albums []AlbumSummary `json:"albums"`
}
