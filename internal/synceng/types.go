// Package synceng implements the checksum-driven reconciliation between a
// local directory tree and a remote storage-zone tree: scanning both sides
// concurrently, diffing them into a plan, and executing that plan with
// bounded concurrency and HTML-last ordering.
package synceng

import "github.com/kaaveland/bunnysync/internal/storagepath"

// FileRecord is the (path, size, checksum) fingerprint used for
// reconciliation. Identity is Path; equality for diffing purposes is
// size-then-checksum (size is a cheap pre-check, checksum is authoritative).
type FileRecord struct {
	Path     storagepath.Path
	Size     int64
	Checksum [32]byte
}

// Equal reports whether two records have identical size and checksum.
func (f FileRecord) Equal(other FileRecord) bool {
	return f.Size == other.Size && f.Checksum == other.Checksum
}

// ActionType distinguishes the two kinds of executor work.
type ActionType int

const (
	// ActionUpload uploads a local file to the zone.
	ActionUpload ActionType = iota
	// ActionDelete removes a remote file not present locally.
	ActionDelete
)

func (t ActionType) String() string {
	switch t {
	case ActionUpload:
		return "UPLOAD"
	case ActionDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Action is a single unit of executor work.
type Action struct {
	Type   ActionType
	Path   storagepath.Path
	IsHTML bool
	Size   int64
}

// NewAction builds an Action, deriving IsHTML from the path suffix.
func NewAction(t ActionType, path storagepath.Path, size int64) Action {
	return Action{Type: t, Path: path, IsHTML: path.IsHTML(), Size: size}
}
