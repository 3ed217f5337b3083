package scripttext

import (
	"strings"
	"unicode"
)

// labelSeparators are the characters accepted between a role label and the
// spoken line. A plain space is not enough on its own for multi-word text,
// but single-letter roles accept it when followed by a separator later.
const labelSeparators = ":-–—"

// SanitizeLines applies SanitizeSpeakerLabels to every line of a script,
// preserving line boundaries.
func SanitizeLines(script string) string {
	lines := strings.Split(script, "\n")
	for i, line := range lines {
		lines[i] = SanitizeSpeakerLabels(line)
	}
	return strings.Join(lines, "\n")
}

// SanitizeSpeakerLabels strips at most one recognized leading speaker label
// from a line and returns the remainder trimmed. Recognized labels are
// single-letter roles ("A", "B"), HOST/GUEST with optional SLICE or PODSLICE
// branding in either order, and SPEAKER followed by a number. Matching is
// case-insensitive and tolerates whitespace around the label and its
// separator. Lines without a recognized label are returned trimmed but
// otherwise unchanged.
func SanitizeSpeakerLabels(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}

	label, rest, ok := splitLabel(trimmed)
	if !ok {
		return trimmed
	}
	if !recognizedLabel(label) {
		return trimmed
	}
	return strings.TrimSpace(rest)
}

// splitLabel separates a candidate leading label from the rest of the line.
// The label must be followed by a separator character (colon or dash), which
// is consumed along with surrounding whitespace.
func splitLabel(line string) (label, rest string, ok bool) {
	idx := strings.IndexAny(line, labelSeparators)
	if idx <= 0 {
		return "", "", false
	}
	label = strings.TrimSpace(line[:idx])
	if label == "" {
		return "", "", false
	}
	// Separators are single runes; the en/em dashes are multi-byte.
	_, size := decodeSeparator(line[idx:])
	return label, line[idx+size:], true
}

func decodeSeparator(s string) (rune, int) {
	for _, r := range s {
		return r, len(string(r))
	}
	return 0, 0
}

// recognizedLabel reports whether a candidate label names a speaker role
// rather than ordinary prose. Candidates containing anything but letters,
// digits, and single spaces are rejected outright.
func recognizedLabel(label string) bool {
	upper := strings.ToUpper(label)
	for _, r := range upper {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
			return false
		}
	}

	words := strings.Fields(upper)
	switch len(words) {
	case 1:
		return singleWordRole(words[0])
	case 2:
		return brandedRole(words[0], words[1]) ||
			(words[0] == "SPEAKER" && numeric(words[1]))
	default:
		return false
	}
}

func singleWordRole(word string) bool {
	if len(word) == 1 && word[0] >= 'A' && word[0] <= 'Z' {
		return true
	}
	switch word {
	case "HOST", "GUEST", "SPEAKER", "NARRATOR", "INTERVIEWER":
		return true
	}
	return false
}

// brandedRole matches HOST/GUEST combined with product branding, in either
// order: "HOST SLICE", "PODSLICE GUEST".
func brandedRole(first, second string) bool {
	role := func(w string) bool { return w == "HOST" || w == "GUEST" }
	brand := func(w string) bool { return w == "SLICE" || w == "PODSLICE" }
	return (role(first) && brand(second)) || (brand(first) && role(second))
}

func numeric(word string) bool {
	for _, r := range word {
		if r < '0' || r > '9' {
			return false
		}
	}
	return word != ""
}

// fileNameReplacer replaces filesystem-unsafe characters with safe
// alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing
// whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizeToken converts a string to a lowercase object-key-safe token.
// Letters are lowercased, digits and hyphens/underscores are kept,
// everything else becomes an underscore. Returns "episode" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "episode"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "episode"
	}
	return out
}
