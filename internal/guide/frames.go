package guide

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	// FramePrefix marks a recognised frame. Matching is case-sensitive.
	FramePrefix = "data:"
	// Sentinel ends the stream; frames after it are never parsed.
	Sentinel = "[DONE]"
)

// Fragment is one piece of assistant text carried by a frame.
type Fragment struct {
	Text  string
	Frame int
}

// FrameStats describes what a FrameReader saw.
type FrameStats struct {
	Lines     int  `json:"lines"`
	Frames    int  `json:"frames"`
	Fragments int  `json:"fragments"`
	Malformed int  `json:"malformed"`
	Empty     int  `json:"empty"`
	Done      bool `json:"done"`
}

type framePayload struct {
	Content string `json:"content"`
}

// FrameReader pulls fragments out of a newline-delimited, data:-prefixed body.
// Lines without the prefix are ignored, malformed payloads are skipped and the
// sentinel ends the stream.
type FrameReader struct {
	reader   *bufio.Reader
	stats    FrameStats
	finished bool
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{reader: bufio.NewReader(r)}
}

// Next returns the next fragment, or io.EOF once the body is exhausted or the
// sentinel was read.
func (fr *FrameReader) Next() (Fragment, error) {
	for !fr.finished {
		line, err := fr.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fr.finished = true
			return Fragment{}, fmt.Errorf("read frame: %w", err)
		}
		if errors.Is(err, io.EOF) {
			fr.finished = true
			if line == "" {
				break
			}
		}
		fr.stats.Lines++

		frag, ok, stop := fr.parseLine(line)
		if stop {
			fr.finished = true
			fr.stats.Done = true
			break
		}
		if ok {
			fr.stats.Fragments++
			return frag, nil
		}
	}
	return Fragment{}, io.EOF
}

func (fr *FrameReader) parseLine(line string) (frag Fragment, ok bool, stop bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, FramePrefix) {
		return Fragment{}, false, false
	}
	fr.stats.Frames++

	payload := strings.TrimSpace(strings.TrimPrefix(line, FramePrefix))
	if payload == Sentinel {
		return Fragment{}, false, true
	}

	var p framePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		fr.stats.Malformed++
		slog.Warn("skip malformed frame", "frame", fr.stats.Frames, "error", err)
		return Fragment{}, false, false
	}
	if p.Content == "" {
		fr.stats.Empty++
		return Fragment{}, false, false
	}
	return Fragment{Text: p.Content, Frame: fr.stats.Frames}, true, false
}

func (fr *FrameReader) Stats() FrameStats {
	return fr.stats
}

// ParseFrames reads every fragment of a fully buffered body.
func ParseFrames(body string) ([]Fragment, FrameStats) {
	fr := NewFrameReader(strings.NewReader(body))
	var frags []Fragment
	for {
		frag, err := fr.Next()
		if err != nil {
			break
		}
		frags = append(frags, frag)
	}
	return frags, fr.Stats()
}
