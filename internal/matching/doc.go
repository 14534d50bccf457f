// Package matching assigns one image to every narration segment.
//
// For each segment the Engine asks an Oracle to pick among the first
// MaxCandidates catalog images. An oracle answer is accepted only when it is
// well formed and its confidence reaches AcceptThreshold; otherwise the
// deterministic fallback scorer picks from the whole catalog, penalising
// images by how often they were already used in the run. Segments are matched
// strictly in order because every pick updates the run's Ledger, which the
// next fallback score reads.
package matching
