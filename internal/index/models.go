package index

import "time"

// Artifact is one generated preview.
type Artifact struct {
	CacheKey     string    `json:"cacheKey"`
	SourcePath   string    `json:"sourcePath"`
	MimeType     string    `json:"mimeType"`
	Builder      string    `json:"builder"`
	Kind         string    `json:"kind"`
	Page         int       `json:"page"`
	ArtifactPath string    `json:"artifactPath"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"createdAt"`
}
