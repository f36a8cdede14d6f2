// Package parser defines the contract every element parser implements,
// the monitored execution wrapper that enforces timeouts and collects
// per-parser statistics, and the factory that selects the best parser
// for an element.
//
// The factory is an instance object constructed by the caller and passed
// by reference; there is no package-level registry and no runtime
// discovery of parser types. Built-in parsers are registered from an
// explicit list.
package parser
