/*
Package ports defines the driven ports (interfaces) of the squad assistant.

These interfaces decouple the workflow engine from external implementations, allowing
it to run against any checkpoint backend, language model or roster source.

# Key Interfaces

  - CheckpointStore: persists one checkpoint per session (memory, file, Redis, SQL).
  - DistributedLocker: serializes session access across replicas.
  - TextInference: the opaque classification, extraction and synthesis calls.
  - RosterProvider: team listing and squad lookup.
  - Conversation: the public entry point used by transports (HTTP, MCP, CLI).
*/
package ports
