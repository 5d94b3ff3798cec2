// Package source defines the capability contract every site adapter
// implements, the authenticated HTTP session with page caching and scrape
// helpers the adapters build on, and the registry the CLI dispatches URLs
// through.
package source
