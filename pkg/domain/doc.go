/*
Package domain contains the core models of the squad assistant.

It defines the conversation state threaded through the workflow, the roster data the
steps work on, and the checkpoint persisted between messages. This package is kept pure
and free of I/O so that every adapter (stores, transports, collaborators) can share it.

# Key Entities

  - ConversationState: the value each step receives and returns.
  - NodeID / Outcome: the finite vocabularies the workflow graph is built from.
  - Checkpoint: the persisted (state, pending node) pair for one session.
  - Reply: the only thing a caller sees, either an answer or a clarification prompt.
*/
package domain
