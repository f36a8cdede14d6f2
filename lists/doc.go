// Package lists detects and structures list elements. Raw lines are
// matched against ordered and unordered marker patterns, leading
// indentation is rank-mapped to hierarchy levels, and a nested tree is
// built from the flat sequence. Hierarchy violations (level jumps greater
// than one, over-deep nesting, empty items) are reported as validation
// findings, never silently repaired.
package lists
