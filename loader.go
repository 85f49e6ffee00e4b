package pvmload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
	"golang.org/x/sync/errgroup"

	"github.com/elliotnunn/pvmload/internal/fileid"
	"github.com/elliotnunn/pvmload/internal/walk"
)

// A Loader reads volumes from one file system and remembers the most useful of them.
// A cached volume is returned again for as long as its file is unchanged,
// so callers must not modify a Volume obtained from a Loader.
//
// A Loader is safe for concurrent use by multiple goroutines.
type Loader struct {
	fsys fs.FS
	opts []Option

	mu    sync.Mutex
	cache *tinylfu.T[fileid.ID, *Volume]
}

func NewLoader(fsys fs.FS, opts ...Option) *Loader {
	// tinylfu needs room for its window and both segments
	n := max(getOptions(opts).cacheSize, 3)
	return &Loader{
		fsys:  fsys,
		opts:  opts,
		cache: tinylfu.New[fileid.ID, *Volume](n, n*10, idHash),
	}
}

func idHash(id fileid.ID) uint64 { return xxhash.Sum64(id[:]) }

// Load reads the named volume, or returns the cached copy.
func (l *Loader) Load(name string) (*Volume, error) {
	id, err := fileid.Get(l.fsys, name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	v, ok := l.cache.Get(id)
	l.mu.Unlock()
	if ok {
		return v, nil
	}

	// two goroutines may decode the same file at once; the second Add wins, harmlessly
	v, err = ReadVolume(l.fsys, name, l.opts...)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache.Add(id, v)
	l.mu.Unlock()
	return v, nil
}

// Glob lists the files matching a doublestar pattern such as "scans/**/*.pvm".
func (l *Loader) Glob(pattern string) ([]string, error) {
	return doublestar.Glob(l.fsys, pattern, doublestar.WithFilesOnly())
}

// LoadAll loads every file matching pattern, decoding several at once,
// and hands each result to fn. Files that turn out not to be volumes are skipped.
// Calls to fn are serialised. Returning an error from fn stops the batch.
//
// Cancelling ctx stops new files from being started; a decode already under way
// runs to completion.
func (l *Loader) LoadAll(ctx context.Context, pattern string, fn func(name string, v *Volume, err error) error) error {
	names, err := l.Glob(pattern)
	if err != nil {
		return fmt.Errorf("%s: %w", pattern, err)
	}

	slog.Info("loadAllStart", "pattern", pattern, "files", len(names))
	t := time.Now()
	waysort, names := walk.DiskOrder(l.fsys, names)
	slog.Debug("loadAllOrder", "pattern", pattern, "sortorder", waysort)

	var fnMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, name := range names {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := l.Load(name)
			if IsNotApplicable(err) {
				slog.Warn("loadAllSkip", "path", name, "err", err)
				return nil
			}
			fnMu.Lock()
			defer fnMu.Unlock()
			return fn(name, v, err)
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	slog.Info("loadAllStop", "pattern", pattern, "duration", time.Since(t).Truncate(time.Millisecond).String())
	return err
}
