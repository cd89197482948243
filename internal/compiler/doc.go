// Package compiler turns CUE circle definitions into circle.Config values.
//
// Definitions live under a top-level circle: struct keyed by circle ID:
//
//	circle: "rent-club": {
//		name:         "Rent Club"
//		type:         "rosca"
//		members:      ["ana", "ben", "cy"]
//		contribution: 10000 // minor units
//		cycles:       3
//	}
//
// Bind checks a value against the embedded schema (schema.cue), CompileCircle
// extracts one Config, and Validate applies the circle configuration rules.
// Errors carry file:line:column positions.
package compiler
