package domain

import "time"

// ArtifactAck confirms a committed upload.
type ArtifactAck struct {
	ID          string    `json:"id"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	CommittedAt time.Time `json:"committed_at"`
	Generation  uint64    `json:"generation"`
}

// ArtifactInfo describes the blob handed out by a download.
type ArtifactInfo struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
	Generation uint64
}

// ArtifactAction names an audited operation on the model slot.
type ArtifactAction string

const (
	ArtifactUploaded   ArtifactAction = "upload"
	ArtifactDownloaded ArtifactAction = "download"
)

// ArtifactEvent is one entry of the artifact audit trail.
type ArtifactEvent struct {
	Action    ArtifactAction `json:"action" bson:"action"`
	Username  string         `json:"username" bson:"username"`
	Size      int64          `json:"size" bson:"size"`
	SHA256    string         `json:"sha256,omitempty" bson:"sha256,omitempty"`
	Filename  string         `json:"filename,omitempty" bson:"filename,omitempty"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
}
