package timeline

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var timestampRe = regexp.MustCompile(`((?:\d{2,}:)?\d{2}:\d{2}[.,]\d{3})\s*-->\s*((?:\d{2,}:)?\d{2}:\d{2}[.,]\d{3})`)

// ParseVTT parses WebVTT (or SRT) content into subtitles. A numeric cue
// identifier becomes the subtitle ID; cues without one are numbered from 1.
func ParseVTT(r io.Reader) ([]Subtitle, error) {
	scanner := bufio.NewScanner(r)
	var subs []Subtitle
	var current *Subtitle
	var pendingID string

	flush := func() {
		if current != nil && current.Text != "" {
			subs = append(subs, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), "\r"))

		if line == "" || strings.HasPrefix(line, "WEBVTT") {
			flush()
			pendingID = ""
			continue
		}

		if m := timestampRe.FindStringSubmatch(line); len(m) == 3 {
			flush()
			id := pendingID
			if id == "" {
				id = strconv.Itoa(len(subs) + 1)
			}
			current = &Subtitle{
				ID:    id,
				Start: parseTimestamp(m[1]),
				End:   parseTimestamp(m[2]),
			}
			pendingID = ""
			continue
		}

		if current == nil {
			// Cue identifier line
			pendingID = line
			continue
		}

		if current.Text != "" {
			current.Text += "\n"
		}
		current.Text += line
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vtt: %w", err)
	}
	flush()

	return subs, nil
}

// WriteVTT renders subtitles as WebVTT, keeping each subtitle's ID as the
// cue identifier.
func WriteVTT(w io.Writer, subs []Subtitle) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("WEBVTT\n\n")
	for _, s := range subs {
		if s.ID != "" {
			bw.WriteString(s.ID)
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "%s --> %s\n", formatTimestamp(s.Start), formatTimestamp(s.End))
		bw.WriteString(s.Text)
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}

func parseTimestamp(ts string) float64 {
	ts = strings.Replace(ts, ",", ".", 1)
	parts := strings.Split(ts, ":")
	var h, m int
	var s float64
	switch len(parts) {
	case 3:
		h, _ = strconv.Atoi(parts[0])
		m, _ = strconv.Atoi(parts[1])
		s, _ = strconv.ParseFloat(parts[2], 64)
	case 2:
		m, _ = strconv.Atoi(parts[0])
		s, _ = strconv.ParseFloat(parts[1], 64)
	}
	return float64(h*3600+m*60) + s
}

func formatTimestamp(seconds float64) string {
	totalMs := int64(seconds*1000 + 0.5)
	h := totalMs / 3600000
	totalMs %= 3600000
	m := totalMs / 60000
	totalMs %= 60000
	s := totalMs / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
