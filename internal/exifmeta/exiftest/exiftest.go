// Package exiftest builds small JPEG files carrying chosen EXIF fields, for
// use in tests of packages that read embedded metadata.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"sort"
	"testing"
	"unicode/utf16"
)

// Fields selects the EXIF fields written into a generated file. Empty fields
// are omitted.
type Fields struct {
	Make             string
	Model            string
	DateTime         string // EXIF form, "2006:01:02 15:04:05"
	DateTimeOriginal string // written to the Exif sub-IFD
	XPKeywords       string // stored as UTF-16LE bytes
	Orientation      uint16
	XResolution      [2]uint32
}

const (
	typeByte     = 1
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type entry struct {
	id    uint16
	typ   uint16
	count uint32
	data  []byte
}

var le = binary.LittleEndian

func ascii(id uint16, s string) entry {
	b := append([]byte(s), 0)
	return entry{id: id, typ: typeASCII, count: uint32(len(b)), data: b}
}

// UTF16LE encodes s the way Windows stores XP* tags, NUL terminated.
func UTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, 2*len(units)+2)
	for _, u := range units {
		b = le.AppendUint16(b, u)
	}
	return append(b, 0, 0)
}

// TIFF returns a little-endian TIFF stream holding the fields.
func TIFF(f Fields) []byte {
	var ifd0, exifIFD []entry

	if f.Make != "" {
		ifd0 = append(ifd0, ascii(0x010F, f.Make))
	}
	if f.Model != "" {
		ifd0 = append(ifd0, ascii(0x0110, f.Model))
	}
	if f.Orientation != 0 {
		ifd0 = append(ifd0, entry{id: 0x0112, typ: typeShort, count: 1, data: le.AppendUint16(nil, f.Orientation)})
	}
	if f.XResolution[1] != 0 {
		b := le.AppendUint32(nil, f.XResolution[0])
		b = le.AppendUint32(b, f.XResolution[1])
		ifd0 = append(ifd0, entry{id: 0x011A, typ: typeRational, count: 1, data: b})
	}
	if f.DateTime != "" {
		ifd0 = append(ifd0, ascii(0x0132, f.DateTime))
	}
	if f.XPKeywords != "" {
		b := UTF16LE(f.XPKeywords)
		ifd0 = append(ifd0, entry{id: 0x9C9E, typ: typeByte, count: uint32(len(b)), data: b})
	}
	if f.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(0x9003, f.DateTimeOriginal))
		// Offset patched once the IFD0 size is known.
		ifd0 = append(ifd0, entry{id: 0x8769, typ: typeLong, count: 1, data: make([]byte, 4)})
	}

	const headerSize = 8
	ifd0Size := ifdSize(ifd0)

	if len(exifIFD) > 0 {
		exifOffset := uint32(headerSize + ifd0Size)
		for i := range ifd0 {
			if ifd0[i].id == 0x8769 {
				le.PutUint32(ifd0[i].data, exifOffset)
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	buf.Write(le.AppendUint16(nil, 42))
	buf.Write(le.AppendUint32(nil, headerSize))
	buf.Write(encodeIFD(ifd0, headerSize))
	if len(exifIFD) > 0 {
		buf.Write(encodeIFD(exifIFD, uint32(headerSize+ifd0Size)))
	}
	return buf.Bytes()
}

func ifdSize(entries []entry) int {
	size := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			size += len(e.data)
		}
	}
	return size
}

// encodeIFD lays out one IFD at offset start, followed by its data area.
func encodeIFD(entries []entry, start uint32) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	dataOffset := start + uint32(2+12*len(entries)+4)
	var head, data []byte

	head = le.AppendUint16(head, uint16(len(entries)))
	for _, e := range entries {
		head = le.AppendUint16(head, e.id)
		head = le.AppendUint16(head, e.typ)
		head = le.AppendUint32(head, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			head = append(head, v...)
			continue
		}
		head = le.AppendUint32(head, dataOffset+uint32(len(data)))
		data = append(data, e.data...)
	}
	head = le.AppendUint32(head, 0)
	return append(head, data...)
}

// JPEG returns a decodable 8x8 JPEG whose APP1 segment holds the fields.
func JPEG(f Fields) []byte {
	payload := append([]byte("Exif\x00\x00"), TIFF(f)...)

	var img bytes.Buffer
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	if err := jpeg.Encode(&img, src, nil); err != nil {
		panic(err)
	}

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	out.Write(binary.BigEndian.AppendUint16(nil, uint16(len(payload)+2)))
	out.Write(payload)
	// Skip the encoder's own SOI marker.
	out.Write(img.Bytes()[2:])
	return out.Bytes()
}

// WriteJPEG writes JPEG(f) to path.
func WriteJPEG(t testing.TB, path string, f Fields) {
	t.Helper()
	if err := os.WriteFile(path, JPEG(f), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
