// Package session runs the interview conversation.
//
// A Session owns one memory.Store and forwards each user message, together
// with the interview instruction and every prior turn, to a
// provider.Generator. The store changes only after a successful call:
//
//	Send(text) -> Generate(system, history, text) -> append user, append assistant
//
// Manager maps identifiers to sessions for shells that serve more than one
// conversation.
package session
