// Package sim builds Bragg curves from a stopping-power curve.
//
// A [Simulator] first walks a virtual particle back from the target range
// with the reverse integrator to find the energy per nucleon it needs, then
// replays the particle forward from that energy, recording one [Sample] per
// step:
//
//	tbl, _ := curve.Load("water.txt", curve.DefaultParseOptions())
//	s := sim.New(tbl)
//	res, _ := s.Run(ctx, sim.Config{TargetRange: 150, DeltaX: 1})
//
// Target ranges are given in millimeters and step lengths in micrometers.
// Samples are reported in millimeters and MeV/mm.
//
// # Thread Safety
//
// A Simulator is not safe for concurrent Run calls because its metrics
// accumulate per run. The curve it reads is never mutated, so an [Ensemble]
// can run many simulators over the same curve in parallel.
package sim
