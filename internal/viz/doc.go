// Package viz renders Bragg curves and run summaries for the terminal.
//
//   - [Plot] draws sampled depth-dose curves with asciigraph
//   - [PlotTable] draws the raw stopping-power table against energy
//   - [Report] formats a run's energies and metrics with lipgloss
//
// Colors come from the active [Theme]; the explorer cycles themes with T.
package viz
