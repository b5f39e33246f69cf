// Package procrun runs external processes for the build tools.
//
// Every external call (the C compiler, the bootstrapped build binary, the container runtime) goes
// through a Runner so the higher level steps can be tested without spawning anything. Failures to
// start a process are reported as a non-zero Result instead of an error return so callers only have
// to check a single exit code.
package procrun
