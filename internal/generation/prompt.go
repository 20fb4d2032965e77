package generation

import "strings"

// Boundary markers separate untrusted post content from instructions in the
// assembled prompt. Only the markers placed by the assembler are structural:
// any literal occurrence inside untrusted text is stripped before embedding,
// so the first emission of each marker is the only one the model ever sees.
const (
	boundaryStart = "<<<POST_CONTENT_START>>>"
	boundaryEnd   = "<<<POST_CONTENT_END>>>"
)

// sanitizeUntrusted removes literal boundary markers from untrusted text.
// Runs to a fixed point since removing one occurrence can splice two
// fragments into a new marker.
func sanitizeUntrusted(text string) string {
	for {
		cleaned := strings.ReplaceAll(text, boundaryStart, "")
		cleaned = strings.ReplaceAll(cleaned, boundaryEnd, "")
		if cleaned == text {
			return cleaned
		}
		text = cleaned
	}
}

// wrapUntrusted embeds untrusted text between boundary markers.
func wrapUntrusted(text string) string {
	return boundaryStart + "\n" + sanitizeUntrusted(text) + "\n" + boundaryEnd
}

// trimDraft strips whitespace and any surrounding quote pair the model
// added around the reply.
func trimDraft(text string) string {
	t := strings.TrimSpace(text)
	if len(t) >= 2 && t[0] == '"' && t[len(t)-1] == '"' {
		t = strings.TrimSpace(t[1 : len(t)-1])
	}
	return t
}

// echoesInjection reports whether a draft looks like the model executed the
// post instead of replying to it: empty output, or a short draft that appears
// verbatim inside the untrusted content.
func echoesInjection(draft, content string) bool {
	d := strings.TrimSpace(draft)
	if d == "" {
		return true
	}
	if len(d) <= 64 && strings.Contains(strings.ToLower(content), strings.ToLower(d)) {
		return true
	}
	return false
}
