package synceng

import (
	"sort"

	"github.com/kaaveland/bunnysync/internal/storagepath"
)

// BuildPlan compares local and remote record sets and emits an action plan.
// Grounded on the aws-s3 sync planner's build-maps-then-classify shape,
// adapted to spec's two-pass algorithm: an upload pass over every local
// path, and a delete pass over every remote path not covered by an
// ignore-prefix. lockfilePath is unconditionally excluded from both sides.
func BuildPlan(local, remote map[storagepath.Path]FileRecord, ignorePrefixes []storagepath.Path, lockfilePath storagepath.Path) *Plan {
	plan := &Plan{}

	localPaths := sortedPaths(local)

	for _, p := range localPaths {
		if p == lockfilePath {
			continue
		}

		localRec := local[p]

		remoteRec, exists := remote[p]
		if !exists || !localRec.Equal(remoteRec) {
			plan.Upload = append(plan.Upload, NewAction(ActionUpload, p, localRec.Size))
			continue
		}

		plan.Skip = append(plan.Skip, p)
	}

	remotePaths := sortedPaths(remote)

	for _, p := range remotePaths {
		if p == lockfilePath {
			continue
		}

		if _, existsLocally := local[p]; existsLocally {
			continue // already classified as upload or skip above
		}

		if storagepath.MatchesAny(p, ignorePrefixes) {
			continue
		}

		plan.Delete = append(plan.Delete, NewAction(ActionDelete, p, remote[p].Size))
	}

	return plan
}

// sortedPaths returns the map's keys in deterministic order, so that plan
// output (and dry-run printing) is reproducible across runs.
func sortedPaths(m map[storagepath.Path]FileRecord) []storagepath.Path {
	out := make([]storagepath.Path, 0, len(m))
	for p := range m {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
