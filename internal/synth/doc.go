// Package synth implements the synthesize stage: rendering the generated
// script to audio with the provider the orchestrator selected for this
// attempt. The rendered bytes are staged to local disk; the persist stage
// uploads them.
package synth
