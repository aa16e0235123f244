package guide

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fragmentTexts(frags []Fragment) string {
	var sb strings.Builder
	for _, f := range frags {
		sb.WriteString(f.Text)
	}
	return sb.String()
}

func TestParseFramesStopsAtSentinel(t *testing.T) {
	body := "data: {\"content\":\"Hel\"}\ndata: {\"content\":\"lo\"}\ndata: [DONE]\ndata: {\"content\":\"ignored\"}"

	frags, stats := ParseFrames(body)

	require.Equal(t, "Hello", fragmentTexts(frags))
	require.True(t, stats.Done)
	require.Equal(t, 2, stats.Fragments)
	require.Equal(t, 3, stats.Frames)
}

func TestParseFrames(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      string
		fragments int
		malformed int
		done      bool
	}{
		{name: "empty body", body: "", want: ""},
		{name: "no recognised frames", body: "hello\n\nevent: ping\nDATA: {\"content\":\"x\"}", want: ""},
		{
			name:      "malformed frame between good ones",
			body:      "data: {\"content\":\"a\"}\ndata: {not json\ndata: {\"content\":\"b\"}",
			want:      "ab",
			fragments: 2,
			malformed: 1,
		},
		{
			name:      "surrounding whitespace and crlf",
			body:      "  data:   {\"content\":\"x\"}  \r\n\tdata:{\"content\":\"y\"}\r\n",
			want:      "xy",
			fragments: 2,
		},
		{name: "sentinel first", body: "data: [DONE]\ndata: {\"content\":\"late\"}", want: "", done: true},
		{name: "no sentinel", body: "data: {\"content\":\"only\"}\n", want: "only", fragments: 1},
		{name: "empty content skipped", body: "data: {\"content\":\"\"}\ndata: {\"other\":1}\ndata: {\"content\":\"z\"}", want: "z", fragments: 1},
		{name: "non-object payload", body: "data: 42\ndata: \"str\"", want: "", malformed: 2},
		{name: "non-string content", body: "data: {\"content\":5}\ndata: {\"content\":\"ok\"}", want: "ok", fragments: 1, malformed: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags, stats := ParseFrames(tt.body)
			require.Equal(t, tt.want, fragmentTexts(frags))
			require.Equal(t, tt.fragments, stats.Fragments)
			require.Equal(t, tt.malformed, stats.Malformed)
			require.Equal(t, tt.done, stats.Done)
		})
	}
}

func TestFrameReaderReturnsEOFAfterSentinel(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("data: {\"content\":\"a\"}\ndata: [DONE]\ndata: {\"content\":\"b\"}\n"))

	frag, err := fr.Next()
	require.NoError(t, err)
	require.Equal(t, "a", frag.Text)
	require.Equal(t, 1, frag.Frame)

	_, err = fr.Next()
	require.ErrorIs(t, err, io.EOF)
	_, err = fr.Next()
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, fr.Stats().Lines)
}
