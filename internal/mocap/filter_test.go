package mocap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// staticSession builds a single-frame session so marker means equal the
// given positions.
func staticSession(names []string, positions []Vec3) *Session {
	return &Session{
		Source:      "test",
		Metadata:    Metadata{Frequency: 100, FrameCount: 1, MarkerCount: len(names)},
		MarkerNames: names,
		Frames: []MarkerFrame{
			{Index: 0, TimeSecs: 0, Positions: positions},
		},
	}
}

func TestSideLabels(t *testing.T) {
	// Two markers well below the centroid Y, two above. Within each side
	// the lower Y gets the lower number.
	s := staticSession(
		[]string{"a", "b", "c", "d"},
		[]Vec3{
			{0, 210, 0}, // right, higher Y -> r2
			{0, -190, 0},
			{0, -210, 0},
			{0, 190, 0},
		},
	)

	got := SideLabels(s)
	want := []string{"r2", "l2", "l1", "r1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SideLabels mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterExcludes(t *testing.T) {
	s := staticSession(
		[]string{"a", "b", "c", "d"},
		[]Vec3{
			{0, -210, 0}, // l1
			{0, -190, 0}, // l2
			{0, 190, 0},  // r1
			{0, 210, 0},  // r2
		},
	)

	out := Filter(s, FilterPolicy{ExcludeLabels: []string{"l1", "r2"}})
	if !out.Filtered {
		t.Error("filtered session not marked Filtered")
	}
	if len(out.MarkerNames) != 2 {
		t.Fatalf("kept %d markers, want 2", len(out.MarkerNames))
	}
	// Without label tables survivors are renumbered in source order.
	if diff := cmp.Diff([]string{"1", "2"}, out.MarkerNames); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	want := []Vec3{{0, -190, 0}, {0, 190, 0}}
	if diff := cmp.Diff(want, out.Frames[0].Positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if out.Metadata.MarkerCount != 2 {
		t.Errorf("MarkerCount = %d, want 2", out.Metadata.MarkerCount)
	}
	// Input untouched.
	if len(s.MarkerNames) != 4 || s.Filtered {
		t.Error("Filter modified its input session")
	}
}

func TestFilterAnatomicalLabels(t *testing.T) {
	// Two markers per side; anatomical names are assigned by ascending
	// height (Z), not by the provisional numbering.
	s := staticSession(
		[]string{"a", "b", "c", "d"},
		[]Vec3{
			{0, -210, 500}, // left, high -> lk
			{0, -190, 100}, // left, low -> la
			{0, 190, 500},  // right, high -> rk
			{0, 210, 100},  // right, low -> ra
		},
	)

	out := Filter(s, FilterPolicy{
		LeftLabels:  []string{"la", "lk"},
		RightLabels: []string{"ra", "rk"},
	})
	want := []string{"lk", "la", "rk", "ra"}
	if diff := cmp.Diff(want, out.MarkerNames); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterLabelCountMismatchFallsBack(t *testing.T) {
	s := staticSession(
		[]string{"a", "b"},
		[]Vec3{{0, -100, 0}, {0, 100, 0}},
	)
	out := Filter(s, FilterPolicy{
		LeftLabels:  []string{"la", "lk", "lh"}, // 3 labels for 1 marker
		RightLabels: []string{"ra"},
	})
	if diff := cmp.Diff([]string{"1", "ra"}, out.MarkerNames); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterIdempotent(t *testing.T) {
	s := staticSession(
		[]string{"a", "b", "c", "d"},
		[]Vec3{
			{0, -210, 0},
			{0, -190, 0},
			{0, 190, 0},
			{0, 210, 0},
		},
	)
	policy := FilterPolicy{ExcludeLabels: []string{"l1"}}

	once := Filter(s, policy)
	twice := Filter(once, policy)
	if twice != once {
		t.Error("re-filtering a filtered session did not return it unchanged")
	}
}

func TestMatchLabels(t *testing.T) {
	ref := staticSession(
		[]string{"la", "ra"},
		[]Vec3{{0, -200, 0}, {0, 200, 0}},
	)
	// Same layout, slightly moved, anonymous names.
	s := staticSession(
		[]string{"m1", "m2", "m3"},
		[]Vec3{{0, 195, 5}, {0, -198, -3}, {0, 0, 900}},
	)

	out, err := MatchLabels(s, ref)
	if err != nil {
		t.Fatalf("MatchLabels failed: %v", err)
	}
	want := []string{"ra", "la", "m3"}
	if diff := cmp.Diff(want, out.MarkerNames); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchLabelsTooFewMarkers(t *testing.T) {
	ref := staticSession(
		[]string{"la", "ra"},
		[]Vec3{{0, -200, 0}, {0, 200, 0}},
	)
	s := staticSession([]string{"m1"}, []Vec3{{0, 0, 0}})
	if _, err := MatchLabels(s, ref); err == nil {
		t.Error("MatchLabels succeeded with fewer markers than the reference")
	}
}
