package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
	"strings"

	"github.com/Faultbox/midgard-terrain/pkg/encoding"
)

// File is one entry to store with Write.
type File struct {
	Name string
	Data []byte
}

// Write creates a version 0x200 archive holding files, zlib-compressed and
// aligned to 8 bytes. Names are stored EUC-KR encoded with backslashes.
func Write(path string, files []File) error {
	var body bytes.Buffer
	var table bytes.Buffer

	for _, f := range files {
		compressed, err := deflate(f.Data)
		if err != nil {
			return err
		}
		aligned := (len(compressed) + 7) &^ 7

		name := encoding.UTF8ToEUCKR(strings.ReplaceAll(f.Name, "/", "\\"))
		table.Write(name)
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(len(compressed)))
		binary.Write(&table, binary.LittleEndian, uint32(aligned))
		binary.Write(&table, binary.LittleEndian, uint32(len(f.Data)))
		table.WriteByte(flagFile)
		binary.Write(&table, binary.LittleEndian, uint32(body.Len()))

		body.Write(compressed)
		body.Write(make([]byte, aligned-len(compressed)))
	}

	compressedTable, err := deflate(table.Bytes())
	if err != nil {
		return err
	}

	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files)) + 7,
		Version:     version200,
	}
	copy(header.Magic[:], grfMagic)

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, header)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(len(compressedTable)))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(compressedTable)

	return os.WriteFile(path, out.Bytes(), 0644)
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
