// Package interleave reorders bytes between a strided layout and a lane-by-lane layout.
//
// Lane i of a buffer split into skip lanes holds the bytes at i, i+skip, i+2*skip, ...
// The forward direction gathers each lane into a contiguous run (lane 0 first);
// restore scatters the runs back to their strided positions.
package interleave

// Transform reorders p in place.
//
// With window == 0 the lanes span all of p, using a temporary buffer as large as p.
// Otherwise p is handled as consecutive windows of skip*window bytes, each transformed
// on its own, followed by one shorter window covering the remainder.
// The temporary buffer then never exceeds one window.
func Transform(p []byte, skip, window int, restore bool) {
	if skip <= 1 || len(p) == 0 {
		return
	}

	span := len(p)
	if window > 0 {
		span = min(span, skip*window)
	}
	tmp := make([]byte, span)

	for len(p) > 0 {
		n := min(span, len(p))
		lanes(p[:n], tmp[:n], skip, restore)
		p = p[n:]
	}
}

// Interleave gathers lanes, the direction an encoder takes.
func Interleave(p []byte, skip, window int) { Transform(p, skip, window, false) }

// Deinterleave scatters lanes back to their natural positions.
func Deinterleave(p []byte, skip, window int) { Transform(p, skip, window, true) }

func lanes(p, tmp []byte, skip int, restore bool) {
	k := 0
	if restore {
		for i := range skip {
			for j := i; j < len(p); j += skip {
				tmp[j] = p[k]
				k++
			}
		}
	} else {
		for i := range skip {
			for j := i; j < len(p); j += skip {
				tmp[k] = p[j]
				k++
			}
		}
	}
	copy(p, tmp)
}
