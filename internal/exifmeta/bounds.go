package exifmeta

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	errNoEXIF    = errors.New("no EXIF block")
	errMalformed = errors.New("malformed EXIF block")
)

const (
	exifHeader = "Exif\x00\x00"

	// maxIFDs bounds the directories walked per file. Real files carry four
	// or five (IFD0, IFD1, Exif, GPS, Interop).
	maxIFDs = 32

	// maxValueBytes caps the sum of declared tag value sizes. The decoder
	// allocates per tag from the declared count, so many entries sharing
	// one data region would otherwise multiply memory use.
	maxValueBytes = 32 << 20
)

var (
	tiffLittleEndian = []byte("II*\x00")
	tiffBigEndian    = []byte("MM\x00*")
)

// valueSizes holds the byte size of each TIFF field type, indexed by type.
var valueSizes = [...]uint64{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

// Pointer tags whose targets the decoder loads as sub-directories.
var subIFDPointers = map[uint16]bool{
	0x8769: true, // Exif
	0x8825: true, // GPS
	0xA005: true, // Interoperability
}

// locateTIFF returns the TIFF stream carrying the EXIF data of a raw TIFF or
// JPEG file. For JPEG that is the payload of the Exif APP1 segment.
func locateTIFF(r io.ReaderAt, size int64) (io.ReaderAt, int64, error) {
	head := make([]byte, 4)
	n, _ := r.ReadAt(head, 0)

	switch {
	case n == 4 && (bytes.Equal(head, tiffLittleEndian) || bytes.Equal(head, tiffBigEndian)):
		return r, size, nil
	case n >= 2 && head[0] == 0xFF && head[1] == 0xD8:
		payload, err := jpegEXIF(bufio.NewReader(io.NewSectionReader(r, 2, size-2)))
		if err != nil {
			return nil, 0, err
		}
		return bytes.NewReader(payload), int64(len(payload)), nil
	default:
		return nil, 0, errNoEXIF
	}
}

// jpegEXIF walks JPEG segments up to the start of scan and returns the TIFF
// stream of the first APP1 segment with an Exif header.
func jpegEXIF(r *bufio.Reader) ([]byte, error) {
	for {
		marker, err := nextMarker(r)
		if err != nil {
			return nil, err
		}

		switch {
		case marker == 0xD9 || marker == 0xDA: // EOI, SOS
			return nil, errNoEXIF
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		var length [2]byte
		if _, err := io.ReadFull(r, length[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated segment header", errMalformed)
		}
		n := int(binary.BigEndian.Uint16(length[:])) - 2
		if n < 0 {
			return nil, fmt.Errorf("%w: segment 0x%02X length %d", errMalformed, marker, n+2)
		}

		if marker != 0xE1 {
			if _, err := r.Discard(n); err != nil {
				return nil, fmt.Errorf("%w: truncated segment 0x%02X", errMalformed, marker)
			}
			continue
		}

		segment := make([]byte, n)
		if _, err := io.ReadFull(r, segment); err != nil {
			return nil, fmt.Errorf("%w: truncated APP1 segment", errMalformed)
		}
		if bytes.HasPrefix(segment, []byte(exifHeader)) {
			return segment[len(exifHeader):], nil
		}
	}
}

func nextMarker(r *bufio.Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, errNoEXIF
	}
	if b != 0xFF {
		return 0, fmt.Errorf("%w: expected marker, found 0x%02X", errMalformed, b)
	}
	for b == 0xFF {
		if b, err = r.ReadByte(); err != nil {
			return 0, errNoEXIF
		}
	}
	return b, nil
}

// checkTIFF walks every directory the decoder will read (the IFD chain and
// the Exif, GPS and Interop sub-directories) and verifies that each entry's
// value lies inside the stream.
func checkTIFF(r io.ReaderAt, size int64) error {
	var head [8]byte
	if _, err := r.ReadAt(head[:], 0); err != nil {
		return fmt.Errorf("%w: short TIFF header", errMalformed)
	}

	var order binary.ByteOrder
	switch {
	case bytes.Equal(head[:4], tiffLittleEndian):
		order = binary.LittleEndian
	case bytes.Equal(head[:4], tiffBigEndian):
		order = binary.BigEndian
	default:
		return fmt.Errorf("%w: bad TIFF header", errMalformed)
	}

	w := &ifdWalker{r: r, size: uint64(size), order: order, seen: make(map[uint64]bool)}

	next := uint64(order.Uint32(head[4:]))
	for next != 0 {
		var err error
		if next, err = w.dir(next); err != nil {
			return err
		}
	}

	for len(w.pending) > 0 {
		offset := w.pending[0]
		w.pending = w.pending[1:]
		if w.seen[offset] {
			continue
		}
		if _, err := w.dir(offset); err != nil {
			return err
		}
	}
	return nil
}

type ifdWalker struct {
	r     io.ReaderAt
	size  uint64
	order binary.ByteOrder

	seen       map[uint64]bool
	pending    []uint64
	valueBytes uint64
}

// dir checks the directory at offset and returns the offset of the next one
// in the chain.
func (w *ifdWalker) dir(offset uint64) (uint64, error) {
	if w.seen[offset] {
		return 0, fmt.Errorf("%w: IFD loop at offset %d", errMalformed, offset)
	}
	if len(w.seen) == maxIFDs {
		return 0, fmt.Errorf("%w: more than %d IFDs", errMalformed, maxIFDs)
	}
	w.seen[offset] = true

	var count [2]byte
	if err := w.read(count[:], offset); err != nil {
		return 0, err
	}
	// The decoder reads the entry count as a signed value.
	n := uint64(0)
	if c := int16(w.order.Uint16(count[:])); c > 0 {
		n = uint64(c)
	}

	table := make([]byte, 12*n+4)
	if err := w.read(table, offset+2); err != nil {
		return 0, err
	}

	for i := uint64(0); i < n; i++ {
		if err := w.entry(table[12*i : 12*i+12]); err != nil {
			return 0, err
		}
	}
	return uint64(w.order.Uint32(table[12*n:])), nil
}

func (w *ifdWalker) entry(e []byte) error {
	id := w.order.Uint16(e[0:])
	typ := w.order.Uint16(e[2:])
	count := uint64(w.order.Uint32(e[4:]))

	if int(typ) >= len(valueSizes) || valueSizes[typ] == 0 {
		return fmt.Errorf("%w: tag 0x%04X has unknown type %d", errMalformed, id, typ)
	}
	length := valueSizes[typ] * count

	value := e[8:12]
	if length > 4 {
		start := uint64(w.order.Uint32(e[8:]))
		if start+length > w.size {
			return fmt.Errorf("%w: tag 0x%04X value of %d bytes at offset %d exceeds the %d-byte stream",
				errMalformed, id, length, start, w.size)
		}
		if subIFDPointers[id] {
			value = make([]byte, 4)
			if err := w.read(value, start); err != nil {
				return err
			}
		}
	}

	w.valueBytes += length
	if w.valueBytes > maxValueBytes || w.valueBytes > 2*w.size {
		return fmt.Errorf("%w: tag values declare %d bytes in a %d-byte stream", errMalformed, w.valueBytes, w.size)
	}

	if subIFDPointers[id] && count > 0 {
		switch typ {
		case 1, 6: // BYTE, SBYTE
			w.pending = append(w.pending, uint64(value[0]))
		case 3, 8: // SHORT, SSHORT
			w.pending = append(w.pending, uint64(w.order.Uint16(value)))
		case 4, 9: // LONG, SLONG
			w.pending = append(w.pending, uint64(w.order.Uint32(value)))
		}
	}
	return nil
}

func (w *ifdWalker) read(p []byte, offset uint64) error {
	if offset+uint64(len(p)) > w.size {
		return fmt.Errorf("%w: IFD at offset %d exceeds the %d-byte stream", errMalformed, offset, w.size)
	}
	if _, err := w.r.ReadAt(p, int64(offset)); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}
