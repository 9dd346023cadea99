package model

import "time"

type FileType string

const (
	FileTypeText     FileType = "txt"
	FileTypePDF      FileType = "pdf"
	FileTypeMarkdown FileType = "md"
	FileTypeReport   FileType = "report"
)

// Metadata keys attached to stored chunks.
const (
	MetaOriginalFilename = "original_filename"
	MetaFileSize         = "file_size"
	MetaChunkSize        = "chunk_size"
	MetaFileHash         = "file_hash"
	MetaSourceURL        = "source_url"
)

// DocumentChunk is one embeddable slice of a source document. ChunkIndex is
// zero-based; TotalChunks is the count for the whole file at ingest time.
type DocumentChunk struct {
	Filename    string                 `json:"filename"`
	FileType    FileType               `json:"file_type"`
	Content     string                 `json:"content"`
	ChunkIndex  int                    `json:"chunk_index"`
	TotalChunks int                    `json:"total_chunks"`
	Embedding   []float32              `json:"-"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ScoredChunk is a search hit. Similarity is cosine, in (threshold, 1].
type ScoredChunk struct {
	ID         string   `json:"id"`
	Filename   string   `json:"filename"`
	FileType   FileType `json:"file_type"`
	Content    string   `json:"content"`
	ChunkIndex int      `json:"chunk_index"`
	Similarity float64  `json:"similarity"`
}

// ReportDocument is a pre-chunked document loaded from a report bundle; it
// is stored as a single chunk.
type ReportDocument struct {
	Filename string                 `json:"filename"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type FileTypeStat struct {
	FileType FileType `json:"file_type"`
	Chunks   int64    `json:"chunks"`
	Files    int64    `json:"files"`
}

type RecentFile struct {
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

type StoreStats struct {
	TotalChunks int64          `json:"total_chunks"`
	TotalFiles  int64          `json:"total_files"`
	ByType      []FileTypeStat `json:"by_type"`
	Recent      []RecentFile   `json:"recent"`
}
