package synceng

import "github.com/kaaveland/bunnysync/internal/storagepath"

// Plan is the immutable output of the diff planner: three disjoint sets of
// zone-relative paths. Invariants (spec §3): every local path appears in
// exactly one of Upload/Skip; every remote path not covered by an
// ignore-prefix appears in exactly one of Delete/Skip.
type Plan struct {
	Upload []Action
	Delete []Action
	Skip   []storagepath.Path
}

// Stats summarizes a plan for human and JSON reporting, mirroring the
// count-and-bytes shape used across this domain's planners.
type Stats struct {
	Uploads       int
	Deletes       int
	Skips         int
	BytesToUpload int64
	BytesToDelete int64
}

// Stats computes aggregate counts and byte totals over the plan.
func (p *Plan) Stats() Stats {
	var s Stats

	for _, a := range p.Upload {
		s.Uploads++
		s.BytesToUpload += a.Size
	}

	for _, a := range p.Delete {
		s.Deletes++
		s.BytesToDelete += a.Size
	}

	s.Skips = len(p.Skip)

	return s
}

// IsEmpty reports whether the plan has no uploads and no deletions.
func (p *Plan) IsEmpty() bool {
	return len(p.Upload) == 0 && len(p.Delete) == 0
}
