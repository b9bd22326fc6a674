package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cyberegoorg/consoleproxy"
)

var errEmptyLine = errors.New("empty command line")

// parseArgs turns key=value pairs into command arguments. A value that is
// valid JSON keeps its JSON type (numbers, booleans, objects, quoted
// strings); anything else is sent as a plain string.
func parseArgs(pairs []string) (consoleproxy.Args, error) {
	args := make(consoleproxy.Args, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		args[key] = v
	}
	return args, nil
}

// parseLine splits a shell line of the form `name key=value ...` into a
// command name and arguments.
func parseLine(line string) (string, consoleproxy.Args, error) {
	fields, err := splitFields(line)
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, errEmptyLine
	}
	args, err := parseArgs(fields[1:])
	if err != nil {
		return "", nil, err
	}
	return fields[0], args, nil
}

// splitFields splits on whitespace outside quotes. Double-quoted sections
// keep their quotes and escapes so they still parse as JSON strings;
// single-quoted sections are taken literally with the quotes removed.
func splitFields(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inField bool
	)
	flush := func() {
		if inField {
			fields = append(fields, cur.String())
			cur.Reset()
			inField = false
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			flush()
		case c == '\'':
			end := strings.IndexByte(line[i+1:], '\'')
			if end < 0 {
				return nil, errors.New("unterminated single quote")
			}
			cur.WriteString(line[i+1 : i+1+end])
			inField = true
			i += end + 1
		case c == '"':
			j := i + 1
			for ; j < len(line) && line[j] != '"'; j++ {
				if line[j] == '\\' {
					j++
				}
			}
			if j >= len(line) {
				return nil, errors.New("unterminated double quote")
			}
			cur.WriteString(line[i : j+1])
			inField = true
			i = j
		default:
			cur.WriteByte(c)
			inField = true
		}
	}
	flush()
	return fields, nil
}
