package scripttext

import "testing"

func TestSanitizeSpeakerLabels(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single letter colon", "A: Hello world", "Hello world"},
		{"branded host", "HOST SLICE: Welcome", "Welcome"},
		{"whitespace around label", "  A :  Hello  ", "Hello"},
		{"plain text unchanged", "Plain text", "Plain text"},
		{"brand before role", "PODSLICE GUEST: Thanks for having me", "Thanks for having me"},
		{"dash separator", "GUEST - I think so", "I think so"},
		{"en dash separator", "HOST – Let's begin", "Let's begin"},
		{"speaker number", "SPEAKER 2: Right", "Right"},
		{"lowercase label", "host: welcome back", "welcome back"},
		{"prose with colon kept", "Here's the thing: it works", "Here's the thing: it works"},
		{"hyphenated word kept", "Well-known fact", "Well-known fact"},
		{"empty line", "", ""},
		{"label only", "A:", ""},
		{"multi word prose before colon", "One more thing to say: done", "One more thing to say: done"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeSpeakerLabels(tt.in); got != tt.want {
				t.Errorf("SanitizeSpeakerLabels(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeSpeakerLabelsIdempotent(t *testing.T) {
	inputs := []string{
		"A: Hello world",
		"HOST SLICE: Welcome",
		"Plain text",
		"GUEST - I think so",
	}
	for _, in := range inputs {
		once := SanitizeSpeakerLabels(in)
		twice := SanitizeSpeakerLabels(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSanitizeLines(t *testing.T) {
	in := "HOST: Welcome to the show.\nGUEST: Glad to be here.\nJust narration."
	want := "Welcome to the show.\nGlad to be here.\nJust narration."
	if got := SanitizeLines(in); got != want {
		t.Errorf("SanitizeLines = %q, want %q", got, want)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Deep Dive: AI Agents", "Deep Dive- AI Agents"},
		{"what/why", "what-why"},
		{"  spaced  ", "spaced"},
		{"q?uote\"d", "quoted"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Deep Dive!"); got != "deep_dive" {
		t.Errorf("SanitizeToken = %q", got)
	}
	if got := SanitizeToken("  "); got != "episode" {
		t.Errorf("SanitizeToken empty = %q", got)
	}
}
