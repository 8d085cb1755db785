/*
Package inference implements ports.TextInference on top of a chat-completion model.

Each operation renders its prompt into eino schema messages and sends them as one
completion with no conversation memory. Two Completer backends are provided: any
eino chat model (NewOpenAIModel builds the OpenAI one) and Azure OpenAI.
*/
package inference
