// Package novelty scores fresh utterances against a curated reference
// population.
//
// A Model is a local-outlier-factor model fitted in novelty mode: training
// points never count themselves as neighbors, and query vectors are scored
// against the training set only. Scores near 1 mean the query sits in a region
// as dense as the reference; large scores mean it lies off the reference
// manifold.
//
// A Model is read-only after Fit and safe for unlimited concurrent scoring.
// Its lifecycle is independent of display snapshots: it is created once,
// persisted with Write or Save and replaced only by an explicit retrain.
//
// Batches scored together are tagged by their originating dataset so train-time
// and test-time scores never mix silently in a report:
//
//	cls, _ := novelty.NewClassifier(2.0)
//	report, err := model.ScoreBatches(ctx, cls,
//	    novelty.Batch{Dataset: "positive feedback", Items: pos},
//	    novelty.Batch{Dataset: "negative feedback", Items: neg},
//	)
package novelty
