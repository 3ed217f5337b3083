// Package transcriber implements the first pipeline stage: resolving a
// job's source reference into a transcript artifact.
//
// Video jobs carry a single media URL. News jobs carry a topic plus one or
// more article URLs ("topic|url[,url...]"); each source is transcribed and
// the results concatenated into one transcript.
package transcriber
