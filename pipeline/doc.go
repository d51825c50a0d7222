/*
Package pipeline wires the ipreport components into complete runs: raw user
input gets normalized into an address set, the valid addresses looked up under
the configured pacing policy, and the records assembled into a report whose
rendered PDF document finally gets saved into the artifact store.

A [Pipeline] owns the lookup provider and its resources, so callers must
[Pipeline.Close] it when done. A Pipeline can serve multiple concurrent runs;
each run gets its own scheduler.
*/
package pipeline
