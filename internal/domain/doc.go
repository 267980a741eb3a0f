// Package domain contains the error taxonomy shared by the bootbus packages.
//
// Sentinel errors can be checked with errors.Is. [PhaseError] is returned by
// the lifecycle driver when a run aborts, naming the phase that failed.
package domain
