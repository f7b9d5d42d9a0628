package accountfile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/mudaccounts/internal/model"
)

// Record tags. Every tag is exactly four characters.
const (
	tagName        = "Name"
	tagPass        = "Pass"
	tagMail        = "Mail"
	tagHost        = "Host"
	tagID          = "Id  "
	tagLevel       = "Levl"
	tagFlags       = "Flag"
	tagBadPassword = "Badp"
	tagLast        = "Last"
	tagPlayed      = "Plyd"
	tagPage        = "Page"
	tagScreenWidth = "ScrW"
	tagDesc        = "Desc"
	tagVars        = "Vars"
)

// descTerminator ends a multi-line description block
const descTerminator = "~"

// tagHandler applies one tag's payload to the record. Block tags read their
// following lines from r.
type tagHandler func(rec *model.AccountRecord, value string, r *lineReader) error

var tagHandlers = map[string]tagHandler{
	tagName: func(rec *model.AccountRecord, value string, _ *lineReader) error {
		rec.Name = value
		return nil
	},
	tagPass: func(rec *model.AccountRecord, value string, _ *lineReader) error {
		rec.PasswordHash = value
		return nil
	},
	tagMail: func(rec *model.AccountRecord, value string, _ *lineReader) error {
		rec.Email = value
		return nil
	},
	tagHost: func(rec *model.AccountRecord, value string, _ *lineReader) error {
		rec.Host = value
		return nil
	},
	tagID: func(rec *model.AccountRecord, value string, _ *lineReader) error {
		id, err := strconv.ParseInt(value, 10, 64)
		rec.ID = id
		return err
	},
	tagLevel: intField(func(rec *model.AccountRecord, v int) { rec.Level = v }),
	tagFlags: func(rec *model.AccountRecord, value string, _ *lineReader) error {
		bits, err := model.ParseFlags(value)
		rec.Flags = model.AccountFlags(bits)
		return err
	},
	tagBadPassword: intField(func(rec *model.AccountRecord, v int) { rec.BadPasswords = v }),
	tagLast: func(rec *model.AccountRecord, value string, _ *lineReader) error {
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		if v != 0 {
			rec.LastLogon = time.Unix(v, 0).UTC()
		}
		return nil
	},
	tagPlayed:      intField(func(rec *model.AccountRecord, v int) { rec.Played = time.Duration(v) * time.Second }),
	tagPage:        intField(func(rec *model.AccountRecord, v int) { rec.PageLength = v }),
	tagScreenWidth: intField(func(rec *model.AccountRecord, v int) { rec.ScreenWidth = v }),
	tagDesc: func(rec *model.AccountRecord, _ string, r *lineReader) error {
		desc, err := readDescription(r)
		rec.Description = desc
		return err
	},
	tagVars: func(rec *model.AccountRecord, value string, r *lineReader) error {
		count, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: variable count %q", model.ErrMalformedRecord, value)
		}
		vars, err := readVars(r, count)
		if err != nil {
			return err
		}
		rec.Vars = vars
		return nil
	},
}

func intField(set func(rec *model.AccountRecord, v int)) tagHandler {
	return func(rec *model.AccountRecord, value string, _ *lineReader) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		set(rec, v)
		return nil
	}
}

// readDescription collects lines up to the terminator
func readDescription(r *lineReader) (string, error) {
	var lines []string
	for {
		line, ok, err := r.next()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: unterminated description", model.ErrMalformedRecord)
		}
		if line == descTerminator {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
}

// checkValue reports whether value can be written after tag as a single
// line that reads back unchanged
func checkValue(tag, value string) error {
	name := strings.TrimSpace(tag)
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: %s value spans lines", model.ErrMalformedRecord, name)
	}
	if strings.TrimLeft(value, ": ") != value {
		return fmt.Errorf("%w: %s value starts with a delimiter", model.ErrMalformedRecord, name)
	}
	if n := len(tag) + 2 + len(value); n > MaxInputLength {
		return fmt.Errorf("%w: %s line would be %d bytes", model.ErrLineTooLong, name, n)
	}
	return nil
}

// checkDescription applies the reader's limits to every description line
func checkDescription(desc string) error {
	for i, l := range strings.Split(desc, "\n") {
		switch {
		case l == descTerminator:
			return fmt.Errorf("%w: description line cannot be %q", model.ErrMalformedRecord, descTerminator)
		case strings.Contains(l, "\r"):
			return fmt.Errorf("%w: carriage return in description line %d", model.ErrMalformedRecord, i+1)
		case len(l) > MaxInputLength:
			return fmt.Errorf("%w: description line %d has %d bytes", model.ErrLineTooLong, i+1, len(l))
		}
	}
	return nil
}

// encode renders a record, omitting every unset field. Vars always come last.
// Anything the reader would reject or alter is refused here instead.
func encode(rec *model.AccountRecord) ([]byte, error) {
	var sb strings.Builder
	var err error
	line := func(tag string, value any) {
		if err != nil {
			return
		}
		v := fmt.Sprint(value)
		if err = checkValue(tag, v); err != nil {
			return
		}
		fmt.Fprintf(&sb, "%s: %s\n", tag, v)
	}

	if rec.Name != "" {
		line(tagName, rec.Name)
	}
	if rec.PasswordHash != "" {
		line(tagPass, rec.PasswordHash)
	}
	if rec.Email != "" {
		line(tagMail, rec.Email)
	}
	if rec.Host != "" {
		line(tagHost, rec.Host)
	}
	if rec.ID != 0 {
		line(tagID, rec.ID)
	}
	if rec.Level != 0 {
		line(tagLevel, rec.Level)
	}
	if rec.Flags != 0 {
		line(tagFlags, rec.Flags)
	}
	if rec.BadPasswords != 0 {
		line(tagBadPassword, rec.BadPasswords)
	}
	if !rec.LastLogon.IsZero() {
		line(tagLast, rec.LastLogon.Unix())
	}
	if rec.Played != 0 {
		line(tagPlayed, int64(rec.Played/time.Second))
	}
	if rec.PageLength != 0 {
		line(tagPage, rec.PageLength)
	}
	if rec.ScreenWidth != 0 {
		line(tagScreenWidth, rec.ScreenWidth)
	}
	if err != nil {
		return nil, err
	}

	if rec.Description != "" {
		if err := checkDescription(rec.Description); err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "%s:\n%s\n%s\n", tagDesc, rec.Description, descTerminator)
	}
	if len(rec.Vars) > 0 {
		if err := writeVars(&sb, rec.Vars); err != nil {
			return nil, err
		}
	}

	return []byte(sb.String()), nil
}
