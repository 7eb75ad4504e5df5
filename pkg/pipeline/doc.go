// Package pipeline provides a declarative dataflow pipeline.
//
// A pipeline is assembled from named stages. Each stage declares typed input and output ports, and bindings connect
// an output port of one stage to an input port of another. The assembled graph must stay acyclic: a binding that
// would close a cycle is rejected when it is declared, not when the pipeline runs.
//
// Running a pipeline is synchronous and single threaded. Each stage executes exactly once, in a topological order of
// the binding graph; stages that could run in either order execute in the order they were added, so a pipeline always
// schedules identically. The first stage error aborts the run and is returned wrapped with the id of the failing
// stage, the original error unchanged.
//
// Values cross stage boundaries as maps keyed by port name. External inputs are checked against the declared ports,
// and every required input port must be satisfied by an external value or a binding before the first stage runs. A
// pipeline may be run repeatedly; stages are free to keep internal state between runs.
package pipeline
