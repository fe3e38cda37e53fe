// Package vocab loads the vocabulary corpus and defines the word record
// model shared by the generation pipeline. The corpus is read once at
// startup and is immutable for the lifetime of the process.
package vocab
