// Package pipeline drives one video generation run end to end: pick the
// next word, synthesize narration and render the frame, mux them into a
// video, publish it, then advance the persisted rotation state. Runs are
// strictly serialized; temporary artifacts are released on every exit path.
package pipeline
