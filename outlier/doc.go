// Package outlier scores local density anomalies and applies the
// category-surfacing policy used by the review table.
//
// Scores are local outlier factors (LOF): a point whose local reachability
// density is well below that of its k nearest neighbors gets a factor above 1.
// A point is flagged when its factor exceeds the configured threshold, i.e.
// when its density ratio (1/LOF) falls below 1/threshold.
//
// Surface keeps a category only if at least one of its members is flagged,
// emitting every member of such a category and labeling the flagged ones with
// LabelOutlier. Categories without flagged members are dropped entirely, so the
// result lists categories worth reviewing rather than a global anomaly list.
package outlier
