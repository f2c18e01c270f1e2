package chunks

import "strings"

// Split cuts text into chunks of at most maxSize characters, packing whole
// sentences greedily and falling back to a hard cut only for a single
// sentence longer than maxSize. Empty input yields no chunks.
func Split(text string, maxSize int) []string {
	text = strings.TrimSpace(text)
	if text == "" || maxSize < 1 {
		return nil
	}

	var out []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for _, sentence := range sentences(text) {
		for len(sentence) > maxSize {
			flush()
			out = append(out, strings.TrimSpace(sentence[:maxSize]))
			sentence = strings.TrimSpace(sentence[maxSize:])
		}
		if sentence == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+1+len(sentence) > maxSize {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(sentence)
	}
	flush()

	return out
}

// sentences splits text on sentence-final punctuation and newlines. The
// splitter is deliberately naive; boundaries only have to be stable, not
// linguistically perfect.
func sentences(text string) []string {
	var out []string
	start := 0

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			if s := strings.TrimSpace(text[start:i]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		case '.', '!', '?':
			// Only break when followed by whitespace or end of text, so
			// decimals and abbreviations mid-token stay together.
			if i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
