// Package vecsight analyzes embedding vectors of user utterances.
//
// An Engine turns a vector table and a metadata table into a published
// snapshot holding a 2D (or 3D) visualization manifold and the locally
// anomalous records of every category that has at least one. Independently, it
// keeps a reference novelty model fitted on a baseline corpus and scores later
// batches against it, and it rolls scores up per market and per time bucket.
//
// # Quick Start
//
//	ctx := context.Background()
//	eng, _ := vecsight.New(vecsight.WithNoveltyThreshold(1.5))
//
//	ds, _ := eng.Ingest(ctx, vectorRows, metadataRows)
//	snap, _ := eng.Rebuild(ctx, ds)
//	for _, row := range snap.FlaggedRows() {
//	    fmt.Println(row.Category, row.Text, row.Coordinates)
//	}
//
// # Snapshots
//
// Builds run off to the side and are published with a single atomic swap.
// Current never blocks and always returns a self-consistent bundle. A rebuild
// requested while another is in flight fails with ErrBuildBusy; a failed build
// leaves the previous snapshot current.
//
// # Novelty
//
//	_, _ = eng.RetrainReference(ctx, baseline)
//	report, _ := eng.Score(ctx,
//	    novelty.Batch{Dataset: "positive feedback", Items: pos},
//	    novelty.Batch{Dataset: "negative feedback", Items: neg},
//	)
//	markets := eng.MarketReport(aggregate.FromReport(report))
//
// The reference model has its own lifecycle. Save it with SaveReference and
// restore it with LoadReference from a local directory, MinIO or S3.
// ListReferences and DeleteReference manage the saved models; each one is
// stored next to a JSON manifest.
package vecsight
