// Package hwconf describes how hardware settings are presented: which control
// edits each setting, and which values are offered for settings whose range
// is too wide to list.
package hwconf

import (
	"cmp"
	"log/slog"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"scopeview/internal/model"
)

// Binning1DFrom2D returns the binnings offered for a square-pixel binning
// setting: powers of two inside the range, plus the current value.
func Binning1DFrom2D(va *model.VA[[]float64]) []float64 {
	cur := va.Value()
	if len(cur) == 0 {
		return nil
	}
	if len(cur) != 2 {
		slog.Warn("Got a binning not of length 2, will try anyway", "binning", cur)
	}

	lo, hi, err := va.Range()
	if err != nil {
		return []float64{cur[0]}
	}
	return binningChoices(cur[0], floats.Max(lo), floats.Min(hi))
}

// BinningFirstDimOnly is like Binning1DFrom2D, for devices where only the
// first dimension can be binned.
func BinningFirstDimOnly(va *model.VA[[]float64]) []float64 {
	cur := va.Value()
	if len(cur) == 0 {
		return nil
	}
	lo, hi, err := va.Range()
	if err != nil || len(lo) == 0 || len(hi) == 0 {
		return []float64{cur[0]}
	}
	return binningChoices(cur[0], lo[0], hi[0])
}

// binningChoices adds up to 5 binnings, starting from the smallest one.
func binningChoices(cur, minbin, maxbin float64) []float64 {
	choices := map[float64]struct{}{cur: {}}
	b := math.Max(1, math.Ceil(minbin))
	for range 6 {
		if minbin <= b && b <= maxbin {
			choices[b] = struct{}{}
		}
		if len(choices) >= 5 && b >= cur {
			break
		}
		b *= 2
	}
	return slices.Sorted(maps.Keys(choices))
}

// ResolutionFromRange returns the resolutions offered for a resolution
// setting: the maximum resolution halved repeatedly, until at least four
// choices exist and the resolutions become smaller than the current one.
func ResolutionFromRange(va *model.VA[[]int]) [][]int {
	return resolutionChoices(va, nil)
}

// ResolutionFromRangePlusPoint is like ResolutionFromRange, with 1x1 always
// offered.
func ResolutionFromRangePlusPoint(va *model.VA[[]int]) [][]int {
	return resolutionChoices(va, [][2]int{{1, 1}})
}

func resolutionChoices(va *model.VA[[]int], extra [][2]int) [][]int {
	cur := va.Value()
	if len(cur) != 2 {
		slog.Warn("Got a resolution not of length 2", "resolution", cur)
		return [][]int{cur}
	}
	_, hi, err := va.Range()
	if err != nil || len(hi) != 2 {
		return [][]int{cur}
	}

	choices := map[[2]int]struct{}{{cur[0], cur[1]}: {}}
	for _, e := range extra {
		choices[e] = struct{}{}
	}
	numPixels := cur[0] * cur[1]
	res := [2]int{hi[0], hi[1]}
	for range 10 {
		choices[res] = struct{}{}
		res = [2]int{res[0] / 2, res[1] / 2}
		if len(choices) >= 4 && res[0]*res[1] < numPixels {
			break
		}
	}

	sorted := slices.SortedFunc(maps.Keys(choices), func(a, b [2]int) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	out := make([][]int, len(sorted))
	for i, r := range sorted {
		out[i] = []int{r[0], r[1]}
	}
	return out
}

// HFWChoices returns the horizontal field widths offered: the predefined
// choices if any, otherwise the range minimum times successive powers of ten
// until the maximum is reached.
func HFWChoices(va *model.VA[float64]) []float64 {
	if choices, err := va.Choices(); err == nil {
		return choices
	}
	mi, ma, err := va.Range()
	if err != nil || mi <= 0 {
		return []float64{va.Value()}
	}
	choices := []float64{mi}
	for step := 1; choices[len(choices)-1] < ma; step++ {
		choices = append(choices, mi*math.Pow10(step))
	}
	return choices
}

// MagnificationControl returns the control for the e-beam magnification.
// It is only needed when the field width cannot be set directly; then a text
// field allows copy-paste.
func MagnificationControl(hasHFW bool) ControlType {
	if hasHFW {
		return ControlNone
	}
	return ControlFloat
}
