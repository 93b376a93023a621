package synceng

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/kaaveland/bunnysync/internal/storagepath"
)

// hashBufferSize is the fixed-size buffer streamed through SHA-256 for each
// file, bounding memory use regardless of file size.
const hashBufferSize = 32 * 1024

// discoveredFile is a regular file found during the directory walk, not yet
// hashed.
type discoveredFile struct {
	fsPath   string
	zonePath storagepath.Path
	size     int64
}

// ScanLocal walks root, producing a zone-relative FileRecord for every
// regular file beneath it. targetSubPath is prefixed onto every resulting
// path. Directory traversal is sequential (cheap); hashing runs on a bounded
// worker pool sized by workers (use 0 for GOMAXPROCS(0)).
func ScanLocal(ctx context.Context, root string, targetSubPath storagepath.Path, workers int, logger *slog.Logger) (map[storagepath.Path]FileRecord, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("local scan: resolving root %q: %w", root, err)
	}

	var files []discoveredFile

	if err := walkDir(absRoot, targetSubPath, map[string]bool{}, &files); err != nil {
		return nil, fmt.Errorf("local scan: %w", err)
	}

	logger.Debug("local scan: discovered files", slog.Int("count", len(files)))

	return hashAll(ctx, files, workers)
}

// walkDir recursively visits fsDir, appending discovered regular files to
// out. ancestors tracks the canonicalized form of every directory on the
// current recursion path, so a symlink cycle is detected and not descended
// into again.
func walkDir(fsDir string, zoneDir storagepath.Path, ancestors map[string]bool, out *[]discoveredFile) error {
	canonical, err := filepath.EvalSymlinks(fsDir)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", fsDir, err)
	}

	if ancestors[canonical] {
		return nil // symlink cycle — do not descend again
	}

	childAncestors := make(map[string]bool, len(ancestors)+1)
	for k := range ancestors {
		childAncestors[k] = true
	}

	childAncestors[canonical] = true

	entries, err := os.ReadDir(fsDir)
	if err != nil {
		return fmt.Errorf("reading directory %q: %w", fsDir, err)
	}

	for _, entry := range entries {
		// NFC normalize to handle macOS NFD filenames. Original name for
		// filesystem I/O, normalized name for the zone path.
		originalName := entry.Name()
		normalizedName := norm.NFC.String(originalName)

		fsPath := filepath.Join(fsDir, originalName)
		zonePath := storagepath.Join(zoneDir.String(), normalizedName)

		info, err := resolveEntry(fsPath, entry)
		if err != nil || info == nil {
			continue // broken symlink, or not a regular/dir entry: skip silently
		}

		if info.IsDir() {
			if err := walkDir(fsPath, zonePath, childAncestors, out); err != nil {
				return err
			}

			continue
		}

		if !info.Mode().IsRegular() {
			continue // sockets, devices, pipes: skip silently
		}

		*out = append(*out, discoveredFile{fsPath: fsPath, zonePath: zonePath, size: info.Size()})
	}

	return nil
}

// resolveEntry returns the os.FileInfo a directory entry should be treated
// as, following symlinks to their target. Returns (nil, nil) for broken
// symlinks, which callers skip silently.
func resolveEntry(fsPath string, entry os.DirEntry) (os.FileInfo, error) {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.Info()
	}

	target, err := os.Stat(fsPath) // follows the symlink
	if err != nil {
		return nil, nil //nolint:nilnil // nil,nil signals "skip this entry"
	}

	return target, nil
}

// hashAll streams every discovered file through SHA-256 on a bounded worker
// pool, grounded on the bounded-errgroup dispatch pattern used throughout
// this codebase's transfer manager.
func hashAll(ctx context.Context, files []discoveredFile, workers int) (map[storagepath.Path]FileRecord, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	records := make([]FileRecord, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, f := range files {
		i, f := i, f

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			sum, err := hashFile(f.fsPath)
			if err != nil {
				return fmt.Errorf("hashing %q: %w", f.zonePath, err)
			}

			records[i] = FileRecord{Path: f.zonePath, Size: f.size, Checksum: sum}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[storagepath.Path]FileRecord, len(records))
	for _, r := range records {
		out[r.Path] = r
	}

	return out, nil
}

// hashFile streams a file through SHA-256 over a fixed-size buffer.
func hashFile(fsPath string) ([32]byte, error) {
	var zero [32]byte

	f, err := os.Open(fsPath)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashBufferSize)

	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return zero, err
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))

	return sum, nil
}
