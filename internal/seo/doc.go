// Package seo derives upload metadata for a finished story video.
//
// The stage makes a small-budget service attempt to produce a title,
// description, and tag list conditioned on the story text. When the service
// is exhausted or returns an unusable payload it switches to a deterministic
// local generator seeded by the prompt and the story's opening text. The
// stage never fails outward: callers always receive a usable Bundle.
package seo
