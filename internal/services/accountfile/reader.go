package accountfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/mudaccounts/internal/model"
)

// MaxInputLength is the longest line accepted in an account file
const MaxInputLength = 256

// scannerLimit bounds the scanner buffer well above MaxInputLength so
// oversized lines are still seen whole and reported
const scannerLimit = 64 * 1024

// lineReader yields one logical line at a time from an account file
type lineReader struct {
	scanner *bufio.Scanner
	lineNo  int
}

func newLineReader(data []byte) *lineReader {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 512), scannerLimit)
	return &lineReader{scanner: scanner}
}

// next returns the next line without its line ending. ok is false at EOF.
func (r *lineReader) next() (line string, ok bool, err error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return "", false, fmt.Errorf("%w: line %d", model.ErrLineTooLong, r.lineNo+1)
			}
			return "", false, err
		}
		return "", false, nil
	}
	r.lineNo++

	line = strings.TrimRight(r.scanner.Text(), "\r")
	if len(line) > MaxInputLength {
		return "", false, fmt.Errorf("%w: line %d has %d bytes", model.ErrLineTooLong, r.lineNo, len(line))
	}
	return line, true, nil
}

// tagArgument splits a line into its 4-character tag and the payload that
// follows any ':' or ' ' delimiters.
func tagArgument(line string) (tag, value string) {
	if len(line) < 4 {
		return line, ""
	}
	return line[:4], strings.TrimLeft(line[4:], ": ")
}
