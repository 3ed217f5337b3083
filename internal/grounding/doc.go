// Package grounding selects which of a user's reference documents are
// relevant enough to ground episode generation. Selection is advisory: any
// classifier error or malformed response degrades to an empty selection and
// the pipeline proceeds ungrounded.
package grounding
