// Package scriptgen implements the summarize stage: turning a transcript
// (optionally grounded by relevant reference documents) into a structured
// summary and a conversational two-speaker script ready for synthesis.
package scriptgen
