package remap

import (
	"sort"

	"github.com/banshee-data/beatremap/internal/beatmap"
)

// ExtractSkeleton returns one timestamp per distinct note time, in order.
// With a positive mergeWindow, a time within mergeWindow of the previous
// slot joins that slot instead of opening a new one. Bombs contribute
// timestamps like any other note.
func ExtractSkeleton(notes []beatmap.Note, mergeWindow float64) []float64 {
	times := make([]float64, len(notes))
	for i, n := range notes {
		times[i] = n.Time
	}
	if !sort.Float64sAreSorted(times) {
		sort.Float64s(times)
	}

	skeleton := make([]float64, 0, len(times))
	for _, t := range times {
		if len(skeleton) == 0 {
			skeleton = append(skeleton, t)
			continue
		}
		last := skeleton[len(skeleton)-1]
		if mergeWindow > 0 {
			if t-last > mergeWindow {
				skeleton = append(skeleton, t)
			}
			continue
		}
		if t != last {
			skeleton = append(skeleton, t)
		}
	}
	return skeleton
}
