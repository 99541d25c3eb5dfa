package cache

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	bodyFileSuffix = ".body"
	metaFileSuffix = ".meta"
)

func bodyFilePath(dir, ks string) string {
	return filepath.Join(dir, ks+bodyFileSuffix)
}

func metaFilePath(dir, ks string) string {
	return filepath.Join(dir, ks+metaFileSuffix)
}

func writeBodyFile(fp string, body io.Reader) error {
	file, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("cannot create %q: %w", fp, err)
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		return fmt.Errorf("cannot write body to %q: %w", fp, err)
	}
	return file.Close()
}

// writeMetaFile encodes the status code and response headers. Data is
// encoded as a sequence of length-prefixed strings:
// status|headerCount|name|value|name|value|...
func writeMetaFile(fp string, statusCode int, header http.Header) error {
	file, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("cannot create %q: %w", fp, err)
	}
	if err := encodeMetadata(file, statusCode, header); err != nil {
		file.Close()
		return fmt.Errorf("cannot write metadata to %q: %w", fp, err)
	}
	return file.Close()
}

func encodeMetadata(w io.Writer, statusCode int, header http.Header) error {
	if err := writeHeader(w, strconv.Itoa(statusCode)); err != nil {
		return err
	}
	if err := writeHeader(w, strconv.Itoa(len(header))); err != nil {
		return err
	}
	for name, values := range header {
		if err := writeHeader(w, name); err != nil {
			return err
		}
		// Multi-valued headers are collapsed into one record.
		if err := writeHeader(w, strings.Join(values, "\n")); err != nil {
			return err
		}
	}
	return nil
}

func decodeMetadata(r io.Reader) (int, http.Header, error) {
	statusStr, err := readHeader(r)
	if err != nil {
		return 0, nil, fmt.Errorf("cannot read status code: %w", err)
	}
	statusCode, err := strconv.Atoi(statusStr)
	if err != nil {
		return 0, nil, fmt.Errorf("corrupted status code %q: %w", statusStr, err)
	}

	countStr, err := readHeader(r)
	if err != nil {
		return 0, nil, fmt.Errorf("cannot read header count: %w", err)
	}
	count, err := strconv.Atoi(countStr)
	if err != nil {
		return 0, nil, fmt.Errorf("corrupted header count %q: %w", countStr, err)
	}

	header := make(http.Header, count)
	for i := 0; i < count; i++ {
		name, err := readHeader(r)
		if err != nil {
			return 0, nil, fmt.Errorf("cannot read header name: %w", err)
		}
		value, err := readHeader(r)
		if err != nil {
			return 0, nil, fmt.Errorf("cannot read value of header %q: %w", name, err)
		}
		for _, v := range strings.Split(value, "\n") {
			header.Add(name, v)
		}
	}
	return statusCode, header, nil
}

// writeHeader encodes a single length-prefixed string in big endian.
func writeHeader(w io.Writer, s string) error {
	n := uint32(len(s))

	b := make([]byte, 0, n+4)
	b = append(b, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	b = append(b, s...)
	_, err := w.Write(b)
	return err
}

// readHeader decodes a single length-prefixed string.
func readHeader(r io.Reader) (string, error) {
	b := make([]byte, 4)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("cannot read length: %w", err)
	}
	n := uint32(b[3]) | (uint32(b[2]) << 8) | (uint32(b[1]) << 16) | (uint32(b[0]) << 24)
	s := make([]byte, n)
	if _, err := io.ReadFull(r, s); err != nil {
		return "", fmt.Errorf("cannot read value with length %d: %w", n, err)
	}
	return string(s), nil
}
