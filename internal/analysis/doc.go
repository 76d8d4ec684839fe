// Package analysis characterizes occupation profiles produced by the solver.
//
//   - [Spectrum]: spatial power spectrum of a profile
//   - [DominantWavenumber]: strongest non-constant mode
//   - [Moments]: mean position and spread of an occupation distribution
package analysis
