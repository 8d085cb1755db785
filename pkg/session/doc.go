/*
Package session serializes access to conversation checkpoints.

Every message for a session id runs inside Manager.WithSession, which holds an
in-process lock (and, when configured, a distributed lock) for that id. The Tx handed
to the callback is the only way to read, write or resume the checkpoint while the lock
is held, so a resume can never race a fresh message for the same conversation.
*/
package session
