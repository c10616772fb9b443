// Package nankill repairs non-finite samples in floating-point images.
//
// Every sample that is +Inf, -Inf or NaN is replaced by the average of up to
// eight neighbouring samples taken from the unmodified input. Which
// neighbours are sampled, and how far away, is controlled by a 3x3 sampling
// grid: each non-centre entry both enables its compass direction and gives
// the distance in pixels. Neighbours that are themselves non-finite are
// skipped. When no neighbour contributes, or the average is still not
// finite, the configured default value is written instead.
//
// Repairing a single scanline against a host-provided sampler:
//
//	eng := nankill.NewEngine[float32](nankill.DefaultConfig())
//	stats := eng.RepairRow(in, out, y, x0, z, sampler)
//
// Repairing a whole image held in memory:
//
//	img, err := nankill.Decode(r) // Portable FloatMap
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fixed, report, err := nankill.Process(img, cfg, &nankill.Options{Edge: nankill.EdgeNaN})
//
// The engine itself never fails: malformed input is always resolved by
// reconstruction or by the default value.
package nankill
