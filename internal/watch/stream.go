package watch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"go.uber.org/zap"

	api "github.com/meridianqs/estimator-client/api/v1alpha1"
	"github.com/meridianqs/estimator-client/pkg/metrics"
)

// maxFrameSize bounds a single push-channel frame.
const maxFrameSize = 1024 * 1024

// frameReader decodes newline-delimited JSON progress frames from the push
// channel. A malformed frame is dropped and logged, never fatal: one bad frame
// must not take the stream down.
type frameReader struct {
	scanner *bufio.Scanner
}

func newFrameReader(r io.Reader) *frameReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &frameReader{scanner: scanner}
}

// Next returns the next well-formed frame. It returns io.EOF when the stream
// ends cleanly and the underlying read error otherwise.
func (f *frameReader) Next() (api.ProgressEvent, error) {
	for f.scanner.Scan() {
		line := bytes.TrimSpace(f.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var event api.ProgressEvent
		if err := json.Unmarshal(line, &event); err != nil {
			zap.S().Named("progress_stream").Warnw("dropping malformed frame", "error", err)
			metrics.IncreaseFramesDroppedTotalMetric()
			continue
		}
		return event, nil
	}
	if err := f.scanner.Err(); err != nil {
		return api.ProgressEvent{}, err
	}
	return api.ProgressEvent{}, io.EOF
}
