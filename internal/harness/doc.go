// Package harness runs dispatcher scenarios described in YAML.
//
// A scenario declares a registry, the files on disk, the project to run and
// what should happen:
//
//	name: patch_adds_metadata
//	description: "Metadata is injected into an IDL that has none"
//	registry:
//	  proj-a:
//	    input: a.json
//	    output: out/a
//	    address: ADDR1
//	    origin: anchor
//	files:
//	  a.json: '{"instructions": []}'
//	run: proj-a
//	expect:
//	  invoked: true
//	  output_dir: out/a
//	  document:
//	    instructions: []
//	    metadata: {address: ADDR1, origin: anchor}
//
// Paths are relative to a fresh temp directory per run. By default the
// generation pipeline is replaced by a recorder; `pipeline: builtin` runs the
// real Rust renderer and records the files it wrote.
//
// # Trace
//
// Run records what the dispatcher did as a trace of stage events (load,
// invoke, then invoked or failed). RunWithGolden compares the trace, as
// canonical JSON, against testdata/golden/<name>.golden:
//
//	go test ./internal/harness -update
package harness
