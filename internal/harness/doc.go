// Package harness runs circle scenarios against a real engine.
//
// A scenario is a YAML file that declares one circle in CUE, a list of
// operation steps with optional expectations, and assertions over the final
// state:
//
//	name: rosca_two_members
//	description: Both members pay and the first receives the pot
//	circle: |
//	  circle: duo: {
//	    name: "Duo", type: "rosca", members: ["ana", "ben"]
//	    contribution: 10000, cycles: 2
//	  }
//	steps:
//	  - op: start
//	  - {op: contribute, member: ana, amount: 10000}
//	  - {op: contribute, member: ana, amount: 10000, expect: {code: DUPLICATE_CONTRIBUTION}}
//	assertions:
//	  - {type: replay}
//
// Each run gets a fresh in-memory store, a fake clock that starts at the
// scenario's start time and moves one minute per read, and request IDs
// req-1, req-2, ... so traces are reproducible. The trace of a run is
// compared against a golden file with RunWithGolden.
package harness
