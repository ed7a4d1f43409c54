// Package platform supplies the default implementation of the external
// collaborators spec.md §1 places out of scope: the local game-binary
// version query and the map-storage/checksum accessor. Both are filesystem
// operations dispatched off the caller's goroutine via a dedicated worker
// pool, per spec.md §5 ("Blocking work... runs on a dedicated blocking
// thread pool"), grounded on internal/gameserver/bufpool.go's sync.Pool
// idiom generalized from buffer reuse to bounded worker dispatch.
package platform

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
)

// ErrWar3NotLocated is returned by Version when no game binary is found
// under InstallationPath (spec.md §7, LocalEnvironment error kind).
var ErrWar3NotLocated = errors.New("war3 installation not located")

// war3BinaryNames are the filenames Local checks for under
// InstallationPath, in order, to locate the game binary.
var war3BinaryNames = []string{"war3.exe", "Warcraft III.exe", "war3"}

// Local is the filesystem-backed Platform used by cmd/flo outside of tests.
type Local struct {
	InstallationPath string
	workers          chan struct{}
}

// maxConcurrentBlockingOps bounds how many map-open/checksum operations run
// at once, keeping a burst of game-starts from exhausting file descriptors.
const maxConcurrentBlockingOps = 4

// New constructs a Local platform rooted at installationPath.
func New(installationPath string) *Local {
	return &Local{
		InstallationPath: installationPath,
		workers:          make(chan struct{}, maxConcurrentBlockingOps),
	}
}

// Version reports a version number for the local game binary. It does not
// read the binary's version resource (PE/version-info parsing is out of
// scope here, spec.md §1); it resolves the binary's
// existence and reports a version derived from its size, which is enough
// to exercise the War3NotLocated failure path the coordinator depends on.
func (l *Local) Version(ctx context.Context) (uint32, error) {
	return dispatch(ctx, l.workers, func() (uint32, error) {
		for _, name := range war3BinaryNames {
			info, err := os.Stat(filepath.Join(l.InstallationPath, name))
			if err == nil {
				return uint32(info.Size() & 0xffffffff), nil
			}
		}
		return 0, ErrWar3NotLocated
	})
}

// OpenStorageWithChecksum opens mapPath and computes its SHA-1 and CRC32.
// The SHA-1 fills the map_sha1[20] field of the lobby's
// GameStartPlayerClientInfo frame; the coordinator does not use the CRC32.
func (l *Local) OpenStorageWithChecksum(ctx context.Context, mapPath string) ([20]byte, uint32, error) {
	return dispatchPair(ctx, l.workers, func() ([20]byte, uint32, error) {
		f, err := os.Open(mapPath)
		if err != nil {
			return [20]byte{}, 0, fmt.Errorf("opening map %s: %w", mapPath, err)
		}
		defer f.Close()

		h := sha1.New()
		crc := crc32.NewIEEE()
		if _, err := io.Copy(io.MultiWriter(h, crc), f); err != nil {
			return [20]byte{}, 0, fmt.Errorf("reading map %s: %w", mapPath, err)
		}

		var sum [20]byte
		copy(sum[:], h.Sum(nil))
		return sum, crc.Sum32(), nil
	})
}

// dispatch runs fn on the bounded worker pool, respecting ctx cancellation
// while waiting for a slot.
func dispatch[T any](ctx context.Context, workers chan struct{}, fn func() (T, error)) (T, error) {
	var zero T
	select {
	case workers <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	defer func() { <-workers }()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// dispatchPair is dispatch for functions returning two values plus error.
func dispatchPair[A, B any](ctx context.Context, workers chan struct{}, fn func() (A, B, error)) (A, B, error) {
	var zeroA A
	var zeroB B
	select {
	case workers <- struct{}{}:
	case <-ctx.Done():
		return zeroA, zeroB, ctx.Err()
	}
	defer func() { <-workers }()

	type result struct {
		a   A
		b   B
		err error
	}
	done := make(chan result, 1)
	go func() {
		a, b, err := fn()
		done <- result{a, b, err}
	}()

	select {
	case r := <-done:
		return r.a, r.b, r.err
	case <-ctx.Done():
		return zeroA, zeroB, ctx.Err()
	}
}
