// Package metrics provides figures of merit of a Bragg curve, accumulated
// sample by sample as the simulator records the curve.
package metrics
