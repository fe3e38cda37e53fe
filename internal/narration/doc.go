// Package narration turns a word record into a spoken-word audio artifact.
// It builds a short script from the word, its part of speech, meaning and
// first example, then synthesizes it through a text-to-speech provider.
package narration
