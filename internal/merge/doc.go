// Package merge links charging-station records that describe the same
// physical station and reconciles each group into one canonical station.
//
// A run sorts the valid records by (source priority, external id) and feeds
// them through an incremental loop:
//
//	for each record r:
//	    candidates := index.QueryRadius(r, R_match)
//	    union r with every candidate the Matcher accepts
//	    index.Insert(r)
//
// Every pair within R_match is therefore compared exactly once, and because
// the Matcher is symmetric the resulting partition is the set of connected
// components of the match graph, whatever the input order.
//
// Groups are never split. A chain of matches can put members further apart
// than R_match; such groups are flagged wide_spread and logged for review.
package merge
