// Package formats provides readers and writers for the binary terrain files:
// the T3DM region map blob and Ragnarok Online GND ground meshes (altitudes only).
package formats

import (
	"encoding/binary"
	"io"
)

// le is the byte order used by every format in this package.
var le = binary.LittleEndian

// readFields reads each pointer in order, wrapping the first failure with what.
func readFields(r io.Reader, onErr func(what string) error, fields ...field) error {
	for _, f := range fields {
		if err := binary.Read(r, le, f.ptr); err != nil {
			return onErr(f.name)
		}
	}
	return nil
}

// writeFields writes each value in order.
func writeFields(w io.Writer, values ...any) error {
	for _, v := range values {
		if err := binary.Write(w, le, v); err != nil {
			return err
		}
	}
	return nil
}

type field struct {
	name string
	ptr  any
}
