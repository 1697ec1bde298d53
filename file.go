package lz78huff

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"
)

// Save writes a to path, appending Extension when path lacks it, and returns
// the path written. A partially written file is removed on failure.
func Save(path string, a *Archive) (string, error) {
	return createArchiveFile(path, func(w io.Writer) error {
		_, err := a.WriteTo(w)
		return err
	})
}

func createArchiveFile(path string, write func(io.Writer) error) (written string, err error) {
	if !strings.HasSuffix(path, Extension) {
		path += Extension
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
			written = ""
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Load reads the archive at path. The version is chosen by the magic number,
// not by the file name.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, openError(path, err)
	}
	return decodeArchive(data)
}

// Decode parses an archive held in memory.
func Decode(data []byte) (*Archive, error) {
	return decodeArchive(data)
}

func decodeArchive(data []byte) (*Archive, error) {
	a := new(Archive)
	n, err := a.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if n != int64(len(data)) {
		return nil, corruptf("%d trailing bytes after archive at offset %d", int64(len(data))-n, n)
	}
	return a, nil
}

// ReadTextFile reads a UTF-8 text file that must not be empty.
func ReadTextFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", openError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrInvalidFormat, path)
	}

	data, err := io.ReadAll(bufio.NewReader(f))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyInput, path)
	}
	if !utf8.Valid(data) {
		if _, err := decodeText(string(data)); err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
	}
	return string(data), nil
}

// WriteTextFile writes text to path, replacing any existing file.
func WriteTextFile(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return fmt.Errorf("open %s: %w", path, err)
}
