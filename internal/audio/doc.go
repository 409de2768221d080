// Package audio synthesizes the narration track for a story.
//
// Each segment's text is synthesized through the speech engine under retry,
// in ordinal order. Clips are concatenated at the sample level with a fixed
// silence gap between consecutive segments, and a cumulative-offset table is
// computed once after concatenation. A single segment running out of
// attempts fails the whole stage with ErrSynthesisExhausted: downstream
// video sync needs every segment, so there are no partial timelines.
package audio
