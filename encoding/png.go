package encoding

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"

	"honnef.co/go/racetrack/jmath"
	"honnef.co/go/safeish"
)

// Private ancillary chunk types.
const (
	ChunkRail    = "raIl"
	ChunkStart   = "stRt"
	ChunkAux     = "auXd"
	ChunkVersion = "trVr"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

var nativeLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// DecodeError reports a track asset that cannot be loaded.
type DecodeError struct {
	// Chunk is the PNG chunk type at fault, if known.
	Chunk  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "track asset: "
	if e.Chunk != "" {
		msg += e.Chunk + " chunk: "
	}
	msg += e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode writes t as a PNG image with the track's chunks placed before
// the image end.
func Encode(w io.Writer, t *Track) error {
	var img bytes.Buffer
	if err := png.Encode(&img, t.Field.Image()); err != nil {
		return err
	}
	data := img.Bytes()
	const iendLen = 12
	if len(data) < len(pngHeader)+iendLen || string(data[len(data)-iendLen+4:len(data)-iendLen+8]) != "IEND" {
		return fmt.Errorf("encoding track: unexpected PNG encoder output")
	}
	body, iend := data[:len(data)-iendLen], data[len(data)-iendLen:]

	var out bytes.Buffer
	out.Write(body)
	for _, rail := range t.Rails {
		payload, err := encodeRail(rail)
		if err != nil {
			return err
		}
		writeChunk(&out, ChunkRail, payload)
	}
	var start []byte
	start = binary.LittleEndian.AppendUint32(start, uint32(int32(t.Start.X)))
	start = binary.LittleEndian.AppendUint32(start, uint32(int32(t.Start.Y)))
	writeChunk(&out, ChunkStart, start)
	if len(t.Aux) > 0 {
		writeChunk(&out, ChunkAux, t.Aux)
	}
	version := t.Version
	if version == 0 {
		version = Version
	}
	writeChunk(&out, ChunkVersion, binary.LittleEndian.AppendUint32(nil, version))
	out.Write(iend)

	_, err := w.Write(out.Bytes())
	return err
}

func writeChunk(w *bytes.Buffer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	w.Write(hdr[:])
	w.Write(data)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	w.Write(binary.BigEndian.AppendUint32(nil, crc.Sum32()))
}

func encodeRail(rail []RailPoint) ([]byte, error) {
	halves := make([]uint16, 0, 2*len(rail))
	for _, p := range rail {
		halves = append(halves, jmath.Float16(p.X), jmath.Float16(p.Y))
	}
	var raw []byte
	if nativeLittleEndian {
		raw = safeish.SliceCast[[]byte](halves)
	} else {
		raw = make([]byte, 0, 2*len(halves))
		for _, h := range halves {
			raw = binary.LittleEndian.AppendUint16(raw, h)
		}
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRail(data []byte) ([]RailPoint, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Chunk: ChunkRail, Reason: "bad compressed data", Err: err}
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, &DecodeError{Chunk: ChunkRail, Reason: "bad compressed data", Err: err}
	}
	if len(raw)%4 != 0 {
		return nil, &DecodeError{Chunk: ChunkRail, Reason: fmt.Sprintf("%d bytes is not a whole number of points", len(raw))}
	}
	rail := make([]RailPoint, len(raw)/4)
	for i := range rail {
		rail[i] = RailPoint{
			X: jmath.Float32(binary.LittleEndian.Uint16(raw[4*i:])),
			Y: jmath.Float32(binary.LittleEndian.Uint16(raw[4*i+2:])),
		}
	}
	return rail, nil
}

// Decode reads a track asset written by Encode.
func Decode(r io.Reader) (*Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, []byte(pngHeader)) {
		return nil, &DecodeError{Reason: "not a PNG file"}
	}

	t := &Track{Version: Version}
	var rails [][]RailPoint
	var haveStart bool
	rest := data[len(pngHeader):]
	for {
		if len(rest) < 12 {
			return nil, &DecodeError{Reason: "truncated file"}
		}
		n := binary.BigEndian.Uint32(rest[:4])
		typ := string(rest[4:8])
		if uint64(n) > uint64(len(rest)-12) {
			return nil, &DecodeError{Chunk: typ, Reason: "chunk extends past the end of the file"}
		}
		body := rest[8 : 8+n]
		if crc32.ChecksumIEEE(rest[4:8+n]) != binary.BigEndian.Uint32(rest[8+n:]) {
			return nil, &DecodeError{Chunk: typ, Reason: "checksum mismatch"}
		}
		rest = rest[12+n:]

		switch typ {
		case ChunkRail:
			if len(rails) == 2 {
				return nil, &DecodeError{Chunk: typ, Reason: "more than two rails"}
			}
			rail, err := decodeRail(body)
			if err != nil {
				return nil, err
			}
			rails = append(rails, rail)
		case ChunkStart:
			if len(body) != 8 {
				return nil, &DecodeError{Chunk: typ, Reason: fmt.Sprintf("got %d bytes, want 8", len(body))}
			}
			t.Start = image.Point{
				X: int(int32(binary.LittleEndian.Uint32(body))),
				Y: int(int32(binary.LittleEndian.Uint32(body[4:]))),
			}
			haveStart = true
		case ChunkAux:
			t.Aux = bytes.Clone(body)
		case ChunkVersion:
			if len(body) != 4 {
				return nil, &DecodeError{Chunk: typ, Reason: fmt.Sprintf("got %d bytes, want 4", len(body))}
			}
			t.Version = binary.LittleEndian.Uint32(body)
			if t.Version != Version {
				return nil, &DecodeError{Chunk: typ, Reason: fmt.Sprintf("unsupported version %d", t.Version)}
			}
		}
		if typ == "IEND" {
			break
		}
	}
	if len(rails) != 2 {
		return nil, &DecodeError{Chunk: ChunkRail, Reason: fmt.Sprintf("found %d rails, want 2", len(rails))}
	}
	if !haveStart {
		return nil, &DecodeError{Chunk: ChunkStart, Reason: "missing"}
	}
	t.Rails = [2][]RailPoint(rails)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Reason: "bad image", Err: err}
	}
	if cfg.Width > MaxSide || cfg.Height > MaxSide || cfg.Width*cfg.Height > MaxCells {
		return nil, &DecodeError{Chunk: "IHDR", Reason: fmt.Sprintf("field of %dx%d cells is too large", cfg.Width, cfg.Height)}
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Reason: "bad image", Err: err}
	}
	t.Field = fieldFromImage(img)
	return t, nil
}

func fieldFromImage(img image.Image) *Field {
	b := img.Bounds()
	f := NewField(b.Dx(), b.Dy())
	if nrgba, ok := img.(*image.NRGBA); ok {
		stride := 4 * f.Width
		for y := range f.Height {
			src := nrgba.Pix[nrgba.PixOffset(b.Min.X, b.Max.Y-1-y):]
			copy(f.Pix[y*stride:(y+1)*stride], src[:stride])
		}
		return f
	}
	for y := range f.Height {
		for x := range f.Width {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Max.Y-1-y)).(color.NRGBA)
			o := f.offset(x, y)
			f.Pix[o+ChanPosX] = c.R
			f.Pix[o+ChanPosY] = c.G
			f.Pix[o+ChanNegX] = c.B
			f.Pix[o+ChanNegY] = c.A
		}
	}
	return f
}
