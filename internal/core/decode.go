package core

// decode.go turns uploaded bytes into text.
//
// Files exported from Windows tools often start with a BOM, and hand-edited
// databases regularly contain stray Latin-1 bytes. The decoder strips the BOM
// (switching to UTF-16 if the BOM says so) and replaces invalid UTF-8 with
// U+FFFD, so parsing never fails on encoding alone.

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readContent reads at most limit bytes from r and decodes them to a string.
// A limit <= 0 disables the size check.
func readContent(r io.Reader, limit int64) (string, error) {
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	raw, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if limit > 0 && int64(len(raw)) > limit {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	text, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return "", fmt.Errorf("read file: decode: %w", err)
	}
	return string(text), nil
}
