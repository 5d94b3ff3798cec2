// Package main hosts the bookfetch CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the source
// registry, and hands URL batches to the workflow runner. Keep this package
// lean: add new functionality by extending the internal packages first, then
// surface it through dedicated commands or flags here.
package main
