package core

// RunManifest records the reproducibility parameters of one pipeline run.
// Archiving it alongside the results lets a run be replayed exactly.
type RunManifest struct {
	ID             RunID
	Seed           int64
	Permutations   int
	BootstrapIters int
	NMDSTries      int
	StartedAt      Timestamp
}
