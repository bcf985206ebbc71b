// Package exifgpstest builds JPEG, PNG and WebP fixtures carrying EXIF GPS tags.
package exifgpstest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
)

// GPS tag numbers from the EXIF GPS IFD.
const (
	TagLatitudeRef  = 0x0001
	TagLatitude     = 0x0002
	TagLongitudeRef = 0x0003
	TagLongitude    = 0x0004

	tagGPSPointer = 0x8825

	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

// Rational is a numerator/denominator pair.
type Rational [2]uint32

// DMS builds a degrees/minutes/seconds triple; seconds are stored with a 1/100 denominator.
func DMS(deg, min uint32, sec float64) []Rational {
	return []Rational{{deg, 1}, {min, 1}, {uint32(sec*100 + 0.5), 100}}
}

// GPS describes the tags written into the fixture. Nil or empty fields are omitted.
type GPS struct {
	LatRef string
	Lat    []Rational
	LonRef string
	Lon    []Rational
}

// JPEG returns a small valid JPEG whose APP1 segment carries the given GPS tags.
func JPEG(gps GPS) []byte {
	plain := PlainJPEG()
	app1 := segment(tiffBlock(gps))

	out := make([]byte, 0, len(plain)+len(app1))
	out = append(out, plain[:2]...) // SOI
	out = append(out, app1...)
	out = append(out, plain[2:]...)
	return out
}

// PlainJPEG returns a small valid JPEG without any metadata.
func PlainJPEG() []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, pattern(), nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNG returns a small valid PNG with an eXIf chunk right after IHDR.
func PNG(gps GPS) []byte {
	plain := PlainPNG()
	const ihdrEnd = 8 + 4 + 4 + 13 + 4 // signature, IHDR length, type, data, crc

	chunk := pngChunk("eXIf", tiffBlock(gps))

	out := make([]byte, 0, len(plain)+len(chunk))
	out = append(out, plain[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, plain[ihdrEnd:]...)
	return out
}

// PlainPNG returns a small valid PNG without any metadata.
func PlainPNG() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, pattern()); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WebP returns a small lossless extended-format WebP (VP8X) carrying an EXIF chunk.
func WebP(gps GPS) []byte {
	plain := PlainWebP()
	bitstream := plain[12:] // the single VP8L chunk of the simple format

	b := pattern().Bounds()
	vp8x := make([]byte, 10)
	vp8x[0] = 0x08 // EXIF present
	putUint24(vp8x[4:], uint32(b.Dx()-1))
	putUint24(vp8x[7:], uint32(b.Dy()-1))

	var body []byte
	body = append(body, "WEBP"...)
	body = append(body, riffChunk("VP8X", vp8x)...)
	body = append(body, bitstream...)
	body = append(body, riffChunk("EXIF", tiffBlock(gps))...)

	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

// PlainWebP returns a small lossless simple-format WebP without any metadata.
func PlainWebP() []byte {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, pattern(), &webp.Options{Lossless: true}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func pattern() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 90, A: 255})
		}
	}
	return img
}

func pngChunk(typ string, data []byte) []byte {
	out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	out = append(out, typ...)
	out = append(out, data...)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(out, crc.Sum32())
}

func riffChunk(fourcc string, data []byte) []byte {
	out := []byte(fourcc)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, data...)
	if len(data)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func putUint24(b []byte, v uint32) {
	b[0], b[1], b[2] = byte(v), byte(v>>8), byte(v>>16)
}

func segment(tiffData []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiffData...)

	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

type entry struct {
	tag    uint16
	typ    uint16
	count  uint32
	inline []byte
	data   []byte
}

// tiffBlock lays out a little-endian TIFF: header, IFD0 with the GPS pointer, GPS IFD, rational data.
func tiffBlock(gps GPS) []byte {
	var entries []entry
	if gps.LatRef != "" {
		entries = append(entries, asciiEntry(TagLatitudeRef, gps.LatRef))
	}
	if len(gps.Lat) > 0 {
		entries = append(entries, rationalEntry(TagLatitude, gps.Lat))
	}
	if gps.LonRef != "" {
		entries = append(entries, asciiEntry(TagLongitudeRef, gps.LonRef))
	}
	if len(gps.Lon) > 0 {
		entries = append(entries, rationalEntry(TagLongitude, gps.Lon))
	}

	le := binary.LittleEndian
	const ifd0Offset = 8
	const ifd0Size = 2 + 12 + 4
	gpsOffset := uint32(ifd0Offset + ifd0Size)
	dataOffset := gpsOffset + 2 + uint32(12*len(entries)) + 4

	buf := make([]byte, 0, 256)
	buf = append(buf, 'I', 'I')
	buf = le.AppendUint16(buf, 42)
	buf = le.AppendUint32(buf, ifd0Offset)

	buf = le.AppendUint16(buf, 1)
	buf = le.AppendUint16(buf, tagGPSPointer)
	buf = le.AppendUint16(buf, typeLong)
	buf = le.AppendUint32(buf, 1)
	buf = le.AppendUint32(buf, gpsOffset)
	buf = le.AppendUint32(buf, 0)

	var data []byte
	buf = le.AppendUint16(buf, uint16(len(entries)))
	for _, e := range entries {
		buf = le.AppendUint16(buf, e.tag)
		buf = le.AppendUint16(buf, e.typ)
		buf = le.AppendUint32(buf, e.count)
		if e.data != nil {
			buf = le.AppendUint32(buf, dataOffset+uint32(len(data)))
			data = append(data, e.data...)
		} else {
			buf = append(buf, e.inline...)
		}
	}
	buf = le.AppendUint32(buf, 0)

	return append(buf, data...)
}

func asciiEntry(tag uint16, s string) entry {
	v := []byte(s + "\x00")
	if len(v) > 4 {
		return entry{tag: tag, typ: typeASCII, count: uint32(len(v)), data: v}
	}
	inline := make([]byte, 4)
	copy(inline, v)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(v)), inline: inline}
}

func rationalEntry(tag uint16, vals []Rational) entry {
	data := make([]byte, 0, 8*len(vals))
	for _, r := range vals {
		data = binary.LittleEndian.AppendUint32(data, r[0])
		data = binary.LittleEndian.AppendUint32(data, r[1])
	}
	return entry{tag: tag, typ: typeRational, count: uint32(len(vals)), data: data}
}
