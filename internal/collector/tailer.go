package collector

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrFollowCompressed is returned when following a compressed transcript
var ErrFollowCompressed = errors.New("cannot follow a compressed transcript")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Tailer reads a host transcript and optionally follows it for new lines
type Tailer struct {
	path         string
	follow       bool
	pollInterval time.Duration
	file         *os.File
	position     int64
	compressed   bool
	Events       chan HostEvent
	Errors       chan error
	done         chan struct{}
}

// NewTailer creates a tailer. With follow set, a trailing partial line is
// left for the follow loop instead of being replayed.
func NewTailer(path string, follow bool, pollInterval time.Duration) *Tailer {
	return &Tailer{
		path:         path,
		follow:       follow,
		pollInterval: pollInterval,
		Events:       make(chan HostEvent, 100),
		Errors:       make(chan error, 10),
		done:         make(chan struct{}),
	}
}

// Replay reads the transcript from the beginning and calls handler for
// each event, synchronously and in order. Lines that are not host events
// are skipped.
func (t *Tailer) Replay(handler func(HostEvent)) error {
	file, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}
	t.file = file

	buffered := bufio.NewReader(file)
	src, compressed, err := decompress(buffered)
	if err != nil {
		t.closeFile()
		return fmt.Errorf("reading transcript header: %w", err)
	}
	defer src.Close()
	t.compressed = compressed

	reader := bufio.NewReader(src)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			if line != "" && !(t.follow && !compressed) {
				handleLine(line, handler)
			}
			break
		}
		if err != nil {
			return fmt.Errorf("reading line: %w", err)
		}
		t.position += int64(len(line))
		handleLine(line, handler)
	}

	// compressed transcripts cannot be followed, so nothing needs the file
	if !t.follow || compressed {
		t.closeFile()
	}
	return nil
}

func (t *Tailer) closeFile() {
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
}

func handleLine(line string, handler func(HostEvent)) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	event, err := ParseLine(line)
	if err == nil && event != nil {
		handler(*event)
	}
}

// decompress sniffs the stream for a gzip or zstd header
func decompress(r *bufio.Reader) (io.ReadCloser, bool, error) {
	head, err := r.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, false, err
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, false, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, true, nil
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, false, fmt.Errorf("opening zstd stream: %w", err)
		}
		return dec.IOReadCloser(), true, nil
	default:
		return io.NopCloser(r), false, nil
	}
}

// Start begins following the transcript from where Replay stopped
func (t *Tailer) Start() error {
	if t.compressed {
		return ErrFollowCompressed
	}
	if t.file == nil {
		file, err := os.Open(t.path)
		if err != nil {
			return fmt.Errorf("opening transcript: %w", err)
		}
		t.file = file
	}

	if _, err := t.file.Seek(t.position, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to %d: %w", t.position, err)
	}

	go t.tailLoop()
	return nil
}

// Stop stops the tailer
func (t *Tailer) Stop() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	t.closeFile()
}

// tailLoop continuously reads new content from the transcript
func (t *Tailer) tailLoop() {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			if err := t.readNewContent(); err != nil {
				select {
				case t.Errors <- err:
				default:
				}
			}
		}
	}
}

// readNewContent reads any complete lines appended since the last read
func (t *Tailer) readNewContent() error {
	stat, err := t.file.Stat()
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	// Handle copytruncate: file size smaller than position
	if stat.Size() < t.position {
		t.position = 0
	}

	if stat.Size() == t.position {
		return nil
	}

	if _, err := t.file.Seek(t.position, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to %d: %w", t.position, err)
	}

	reader := bufio.NewReader(t.file)
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			// Partial line - don't advance position past it
			break
		}
		if err != nil {
			return fmt.Errorf("reading line: %w", err)
		}
		t.position += int64(len(line))

		// blocks rather than drops, later events depend on earlier ones
		handleLine(line, func(event HostEvent) {
			select {
			case t.Events <- event:
			case <-t.done:
			}
		})
	}

	return nil
}
