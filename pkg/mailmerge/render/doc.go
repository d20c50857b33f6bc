// Package render provides pure helpers that normalise paragraph content
// before placeholder substitution.
//
// Word frequently splits what the author typed as one word over several runs
// (spell checking, revision ids, an edit in the middle of a word). A token
// such as "@Name" can then end up as "@" in one run and "Name" in the next,
// and a run-by-run substitution never sees it. MergeConsecutiveRuns joins
// such runs back together when doing so cannot change formatting.
//
// Functions in this package do not keep state and only depend on the xml
// package, so they can be tested in isolation.
//
// Example:
//
//	for _, p := range xml.Paragraphs(body) {
//	    render.MergeConsecutiveRuns(p)
//	}
package render
