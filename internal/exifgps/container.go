package exifgps

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	exifHeader   = []byte("Exif\x00\x00")

	errNoExifChunk = errors.New("no exif chunk")
)

// exifPayload returns the bytes goexif should decode. PNG and WebP carry a
// bare TIFF block in their own chunk; JPEG and TIFF input is passed through.
func exifPayload(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, pngSignature):
		return pngExif(data[len(pngSignature):])
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return webpExif(data[12:])
	default:
		return data, nil
	}
}

// pngExif walks PNG chunks (length, type, data, crc) up to IEND looking for eXIf.
func pngExif(chunks []byte) ([]byte, error) {
	for len(chunks) >= 12 {
		n := binary.BigEndian.Uint32(chunks[0:4])
		typ := string(chunks[4:8])
		if uint64(n)+12 > uint64(len(chunks)) {
			return nil, errors.New("truncated png chunk")
		}

		switch typ {
		case "eXIf":
			return trimExifHeader(chunks[8 : 8+n]), nil
		case "IEND":
			return nil, errNoExifChunk
		}
		chunks = chunks[12+n:]
	}
	return nil, errNoExifChunk
}

// webpExif walks RIFF chunks (fourcc, little-endian size, data, pad to even) looking for EXIF.
func webpExif(chunks []byte) ([]byte, error) {
	for len(chunks) >= 8 {
		fourcc := string(chunks[0:4])
		n := uint64(binary.LittleEndian.Uint32(chunks[4:8]))
		if n+8 > uint64(len(chunks)) {
			return nil, errors.New("truncated riff chunk")
		}

		if fourcc == "EXIF" {
			return trimExifHeader(chunks[8 : 8+n]), nil
		}

		next := 8 + n + n&1
		if next > uint64(len(chunks)) {
			break
		}
		chunks = chunks[next:]
	}
	return nil, errNoExifChunk
}

// trimExifHeader drops the JPEG-style "Exif\0\0" prefix some writers keep.
func trimExifHeader(b []byte) []byte {
	return bytes.TrimPrefix(b, exifHeader)
}
