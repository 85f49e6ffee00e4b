package pvmload

import (
	"math"
	"os"
	"strconv"
)

var (
	defaultLimit     int64 = calcLimit()
	defaultCacheSize int   = calcCacheSize()
)

// calcLimit bounds any single decode, so that a corrupt or hostile file fails
// cleanly instead of exhausting memory
func calcLimit() int64 {
	if e := os.Getenv("PVMGB"); e != "" {
		f, err := strconv.ParseFloat(e, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			panic("malformed PVMGB environment variable, should be a number of gigabytes: " + e)
		}
		return int64(f * 1024 * 1024 * 1024)
	}
	return 16 * 1024 * 1024 * 1024 // fall back on 16GiB
}

func calcCacheSize() int {
	if e := os.Getenv("PVMCACHE"); e != "" {
		n, err := strconv.Atoi(e)
		if err != nil || n < 1 {
			panic("malformed PVMCACHE environment variable, should be a count of volumes: " + e)
		}
		return n
	}
	return 8
}

// An Option adjusts how a volume is read.
type Option func(*options)

type options struct {
	multi     bool
	limit     int64
	cacheSize int
}

func getOptions(opts []Option) options {
	o := options{limit: defaultLimit, cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithComponents accepts volumes with more than one component per voxel.
// Without it such volumes are rejected as corrupt.
func WithComponents() Option {
	return func(o *options) { o.multi = true }
}

// WithLimit caps the decoded size of a file in bytes. Zero removes the cap.
func WithLimit(n int64) Option {
	return func(o *options) {
		if n >= 0 {
			o.limit = n
		}
	}
}

// WithCacheSize sets how many decoded volumes a Loader keeps. The minimum is 3.
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}
