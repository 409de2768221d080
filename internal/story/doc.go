// Package story defines the core narrative types and the structural
// validation gate applied to raw generation output.
//
// A Story is an ordered sequence of segments, each pairing non-empty
// narration text with exactly one image. Ordinal order is the contract the
// whole pipeline preserves: audio clips and video frames are matched to
// segments by ordinal, never by content.
//
// ExtractSegments turns the model's free-form text into clean narration
// units; New applies the validation gate that decides whether a generation
// attempt counts as a success.
package story
