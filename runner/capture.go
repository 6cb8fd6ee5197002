package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// truncationMarker is appended verbatim when diagnostic output is cut.
const truncationMarker = "\n*** (remaining output truncated) ***"

// capture is the scoped temporary file receiving a command's combined
// stdout/stderr. Writing to a file instead of a pipe means the child can
// produce unbounded output while the parent blocks in wait, without
// either side stalling on a full kernel pipe buffer.
type capture struct {
	file *os.File
}

func newCapture() (*capture, error) {
	f, err := os.CreateTemp("", "procrun-*")
	if err != nil {
		return nil, fmt.Errorf("creating output file: %w", err)
	}
	return &capture{file: f}, nil
}

// ReadAll returns the complete captured output.
func (c *capture) ReadAll() ([]byte, error) {
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(c.file)
}

// ReadTruncated returns at most max bytes of captured output, with the
// truncation marker appended when anything was cut.
func (c *capture) ReadTruncated(max int) ([]byte, error) {
	if _, err := c.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, max+1)
	n, err := io.ReadFull(c.file, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	if n > max {
		return append(buf[:max], truncationMarker...), nil
	}
	return buf[:n], nil
}

// Close releases the file handle and removes the file from disk.
func (c *capture) Close() error {
	name := c.file.Name()
	err := c.file.Close()
	if rmErr := os.Remove(name); err == nil {
		err = rmErr
	}
	return err
}
