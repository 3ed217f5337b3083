// Package scripttext provides text processing for generated episode scripts.
//
// The primary use cases are:
//   - Stripping literal speaker-label artifacts ("A:", "HOST SLICE:") that
//     language models emit at the start of script lines
//   - Sanitizing episode titles for safe use in object keys and filenames
//
// Label stripping is a pure per-line transform: at most one recognized
// leading label is removed per line, and lines without a recognized label
// pass through unchanged, so applying the transform twice is a no-op.
package scripttext
