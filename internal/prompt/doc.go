// Package prompt obtains the story prompt that seeds generation.
//
// A caller-supplied topic is used verbatim. When no topic is given the stage
// asks the content service to invent one and repairs the response so the
// clauses the story model depends on (animation style, 16:9 aspect ratio)
// are always present. Exhausting the retry budget without a usable response
// fails the run with ErrGenerationExhausted.
package prompt
