/*
Package squadchat answers questions about Premier League squads through a small,
resumable conversation workflow.

Each message runs a fixed graph of steps (validate, extract the team, fetch the
squad, formulate the answer). When the team cannot be identified the workflow asks
the user a clarification question and suspends; the next message for the same
session resumes exactly where it stopped. Progress is checkpointed after every
step, so any store that satisfies ports.CheckpointStore (memory, file, Redis, SQL)
makes conversations survive restarts.

# Usage

	inf := inference.NewClient(inference.NewEinoCompleter(chatModel))
	rost, _ := roster.LoadLocal("data/squads.json")

	assistant, err := squadchat.New(inf, rost,
		squadchat.WithStore(file.New("")),
		squadchat.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	reply, err := assistant.Handle(ctx, sessionID, "Who is Arsenal's goalkeeper?")
	switch reply.Kind {
	case domain.ReplyClarification:
		// show reply.Text and send the user's answer with the same sessionID
	case domain.ReplyAnswer:
		// done; the next message starts a new question
	}

Messages for one session are serialized; different sessions run concurrently.
Use WithLocker with the Redis locker when several processes share a store.
*/
package squadchat
