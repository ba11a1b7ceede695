package mocap

import (
	"fmt"
	"math"
	"sort"
)

// FilterPolicy controls which markers survive relabelling and what they are
// called afterwards. The exclusion set is expressed in provisional side
// labels (l1, r3, ...) because the capture system's raw marker names are not
// stable across recordings; the spatial labels are.
type FilterPolicy struct {
	// ExcludeLabels lists provisional labels to drop, e.g. "l1", "r5".
	ExcludeLabels []string

	// LeftLabels and RightLabels optionally assign anatomical names to the
	// surviving markers of each side, ordered by ascending mean height
	// (ankle first, shoulder last). When absent, or when the count does not
	// match the side's surviving markers, markers are renumbered "1".."n".
	LeftLabels  []string
	RightLabels []string
}

type sideMarker struct {
	index int // position index in the session
	mean  Vec3
}

// SideLabels computes the provisional label for every marker: the session
// centroid's Y coordinate splits markers into a left group (Y below centre)
// and a right group, and each group is numbered l1../r1.. by ascending
// mean Y. The result is indexed like Session.MarkerNames.
func SideLabels(s *Session) []string {
	means := s.MeanPositions()
	if len(means) == 0 {
		return nil
	}

	var centreY float64
	for _, m := range means {
		centreY += m.Y
	}
	centreY /= float64(len(means))

	var left, right []sideMarker
	for i, m := range means {
		if m.Y < centreY {
			left = append(left, sideMarker{i, m})
		} else {
			right = append(right, sideMarker{i, m})
		}
	}
	sort.Slice(left, func(a, b int) bool { return left[a].mean.Y < left[b].mean.Y })
	sort.Slice(right, func(a, b int) bool { return right[a].mean.Y < right[b].mean.Y })

	labels := make([]string, len(means))
	for n, m := range left {
		labels[m.index] = fmt.Sprintf("l%d", n+1)
	}
	for n, m := range right {
		labels[m.index] = fmt.Sprintf("r%d", n+1)
	}
	return labels
}

// Filter drops the markers named by the policy's exclusion set and assigns
// the surviving markers their final labels. The input session is not
// modified. Filtering an already-filtered session returns it unchanged, so
// applying the same policy twice yields the same result.
func Filter(s *Session, policy FilterPolicy) *Session {
	if s.Filtered {
		return s
	}

	provisional := SideLabels(s)
	excluded := make(map[string]bool, len(policy.ExcludeLabels))
	for _, l := range policy.ExcludeLabels {
		excluded[l] = true
	}

	var keep []int
	for i := range s.MarkerNames {
		if !excluded[provisional[i]] {
			keep = append(keep, i)
		}
	}

	names := finalLabels(s, keep, provisional, policy)

	frames := make([]MarkerFrame, len(s.Frames))
	for fi, f := range s.Frames {
		positions := make([]Vec3, len(keep))
		for ki, idx := range keep {
			positions[ki] = f.Positions[idx]
		}
		frames[fi] = MarkerFrame{Index: f.Index, TimeSecs: f.TimeSecs, Positions: positions}
	}

	meta := s.Metadata
	meta.MarkerCount = len(keep)

	return &Session{
		Source:      s.Source,
		Metadata:    meta,
		MarkerNames: names,
		Frames:      frames,
		Filtered:    true,
	}
}

// finalLabels names the kept markers. With anatomical label tables the
// markers of each side are ranked by ascending mean Z (height above the
// floor); otherwise they are renumbered in source order.
func finalLabels(s *Session, keep []int, provisional []string, policy FilterPolicy) []string {
	names := make([]string, len(keep))
	for i := range names {
		names[i] = fmt.Sprintf("%d", i+1)
	}
	if len(policy.LeftLabels) == 0 && len(policy.RightLabels) == 0 {
		return names
	}

	means := s.MeanPositions()
	var left, right []int // indices into keep
	for ki, idx := range keep {
		if len(provisional[idx]) > 0 && provisional[idx][0] == 'l' {
			left = append(left, ki)
		} else {
			right = append(right, ki)
		}
	}
	byHeight := func(group []int) {
		sort.Slice(group, func(a, b int) bool {
			return means[keep[group[a]]].Z < means[keep[group[b]]].Z
		})
	}
	byHeight(left)
	byHeight(right)

	if len(policy.LeftLabels) == len(left) {
		for n, ki := range left {
			names[ki] = policy.LeftLabels[n]
		}
	}
	if len(policy.RightLabels) == len(right) {
		for n, ki := range right {
			names[ki] = policy.RightLabels[n]
		}
	}
	return names
}

// MatchLabels renames the session's markers to the reference session's
// names by nearest mean position, synchronising labels across recordings
// whose raw marker counts differ. Each reference marker claims its closest
// unclaimed marker; session markers left unclaimed keep their name. An
// error is returned when the session has fewer markers than the reference.
func MatchLabels(s, ref *Session) (*Session, error) {
	if len(s.MarkerNames) < len(ref.MarkerNames) {
		return nil, fmt.Errorf("cannot match labels: session has %d markers, reference has %d",
			len(s.MarkerNames), len(ref.MarkerNames))
	}

	means := s.MeanPositions()
	refMeans := ref.MeanPositions()

	names := append([]string(nil), s.MarkerNames...)
	claimed := make([]bool, len(means))
	for ri, rm := range refMeans {
		best := -1
		bestDist := math.Inf(1)
		for si, sm := range means {
			if claimed[si] {
				continue
			}
			if d := sm.Sub(rm).Norm(); d < bestDist {
				bestDist = d
				best = si
			}
		}
		if best >= 0 {
			claimed[best] = true
			names[best] = ref.MarkerNames[ri]
		}
	}

	out := *s
	out.MarkerNames = names
	return &out, nil
}
