// Package tardis is a Monte Carlo radiative-transfer kernel for supernova
// spectral synthesis: it propagates energy packets through a spherically
// symmetric, homologously expanding stratified atmosphere and collects the
// emergent spectrum and the radiation-field estimators an outer plasma
// solver iterates on.
//
// Everything is organized under per-concern subpackages:
//
//	model/         — StorageModel: the read-mostly atmosphere plus the estimator arrays
//	packet/        — RPacket, the propagating energy bundle, and its terminal Status
//	geometry/      — distance-to-boundary/line, packet motion, Doppler transforms
//	opacity/       — electron/bound-free/free-free continuum opacity, Sobolev depths
//	interaction/   — Thomson, line, bound-free, free-free and shell-crossing handlers
//	macroatom/     — the macro-atom transition walk for line redistribution
//	virtualpacket/ — the peel-off variance-reduction scheme for low-noise spectra
//	montecarlo/    — the per-packet event loop and the parallel main loop
//	search/        — monotone-array search primitives over sorted frequency lists
//	telemetry/     — Prometheus instrumentation of a run
//	physconst/     — shared cgs physical constants
//
// The usual entry point is montecarlo.RunMonteCarlo; cmd/tardismc wraps it
// in a CLI for running model snapshots from the command line.
package tardis
