package scanning

import (
	"encoding/base64"
	"fmt"
	"os"
)

// FileAccessError reports an image file that could not be read
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("reading image %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// Encode reads the file at path and returns its bytes as standard base64.
// The content is not inspected, so any format is accepted.
func Encode(path string) (string, error) {
	data, err := readImage(path)
	if err != nil {
		return "", err
	}
	return EncodeBytes(data), nil
}

// EncodeBytes returns data as standard base64
func EncodeBytes(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func readImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	return data, nil
}
