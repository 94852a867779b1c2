package domain

// LoadPhase identifies where in the progressive load an update came from.
type LoadPhase string

const (
	PhaseIndex      LoadPhase = "index"      // manifest fetch
	PhaseInitial    LoadPhase = "initial"    // initial window merge
	PhaseBackground LoadPhase = "background" // background batch merge
	PhaseLegacy     LoadPhase = "legacy"     // monolithic fallback
	PhaseDone       LoadPhase = "done"       // all categories merged
)

// LoadProgress reports incremental load progress to the UI.
// Sent after the manifest arrives, after the initial window merges, and
// after every background batch merge.
type LoadProgress struct {
	Series           string
	Phase            LoadPhase
	Items            int  // items merged so far
	Total            int  // manifest item total (0 if unknown)
	CategoriesLoaded int  // category shards merged so far
	CategoryCount    int  // total category shards in the manifest
	Background       bool // true while background batches are still pending
}

// ProgressFunc receives LoadProgress updates. Implementations must be fast
// and must not call back into the loader.
type ProgressFunc func(LoadProgress)

// ActivateResult summarizes what Activate did for a series.
type ActivateResult struct {
	Series     string
	FromCache  bool // true if the manifest and initial window were already cached
	Legacy     bool // true if the monolithic fallback path was used
	Items      int  // items visible after the initial phase
	Background bool // true if background batches were scheduled
}
