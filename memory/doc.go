// Package memory holds the in-process message log of one interview.
//
// Model:
//   - A Turn is role + text. Turns are immutable once appended.
//   - A Store is append-only; Clear is the only way to drop turns.
//   - Nothing is written to disk. A conversation lives as long as the process.
package memory
