// File: internal/batch/sink.go
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/webeval-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileSink appends outcomes to a JSON-lines file, one record per session.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *jsoniter.Encoder
	path string
}

var _ OutcomeSink = (*FileSink)(nil)

// NewFileSink creates the output directory and a timestamped results file
// inside it.
func NewFileSink(outputDir string) (*FileSink, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output dir %q: %w", outputDir, err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("outcomes_%s.jsonl", time.Now().Format("20060102_150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open results file %q: %w", path, err)
	}
	return &FileSink{
		file: f,
		enc:  json.NewEncoder(f),
		path: path,
	}, nil
}

// Path returns the results file location.
func (s *FileSink) Path() string { return s.path }

// Write appends one outcome. Safe for concurrent use.
func (s *FileSink) Write(out *schemas.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(out)
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
