package stream

import (
	"bufio"
	"bytes"
	"io"
)

// readEvents consumes a text/event-stream body, invoking handle once
// per message with the concatenated data field. Comment lines, event
// names, ids and retry hints are skipped; only data matters here. It
// returns when the body ends or errors.
func readEvents(r io.Reader, handle func(data []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data [][]byte
	for scanner.Scan() {
		line := scanner.Bytes()

		if len(line) == 0 {
			// Blank line ends the message.
			if len(data) > 0 {
				handle(bytes.Join(data, []byte("\n")))
				data = nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, found := bytes.Cut(line, []byte(":"))
		if !found {
			field, value = line, nil
		}
		if string(field) != "data" {
			continue
		}
		value = bytes.TrimPrefix(value, []byte(" "))
		// Copy: scanner reuses its buffer on the next line.
		data = append(data, append([]byte(nil), value...))
	}
	return scanner.Err()
}
