package builder

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register decoders
	_ "image/png"
	"strconv"
	"strings"

	"github.com/wudi/ocrpdf/contentstream"
	"github.com/wudi/ocrpdf/filters"
	"github.com/wudi/ocrpdf/observability"
	"github.com/wudi/ocrpdf/writer"
)

// Image is a page background supplied as a base64 data URL.
type Image struct {
	// Format is "png" or "jpeg"; when empty it is taken from Src.
	Format string
	Src    string
	// ColorMode records how the image was produced ("color", "gray",
	// "binary"). It does not affect embedding.
	ColorMode string
}

var (
	ErrNotDataURL     = errors.New("not a base64 data URL")
	errPNGSignature   = errors.New("png: bad signature")
	errPNGNoImageData = errors.New("png: no IDAT chunk")
	errPNGTruncated   = errors.New("png: truncated chunk")
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

type pngHeader struct {
	width, height int
	bitDepth      int
	colorType     int
}

// readPNG walks the chunk stream and returns the IHDR fields and the
// concatenated IDAT payload. The header is returned even when an error is.
func readPNG(data []byte) (pngHeader, []byte, error) {
	hdr := pngHeader{bitDepth: 8, colorType: 2}
	if !bytes.HasPrefix(data, pngSignature) {
		return hdr, nil, errPNGSignature
	}
	var idat []byte
	for p := len(pngSignature); ; {
		if len(data)-p < 8 {
			return hdr, idat, errPNGTruncated
		}
		n := int(binary.BigEndian.Uint32(data[p:]))
		typ := string(data[p+4 : p+8])
		body := p + 8
		if n < 0 || len(data)-body < n+4 {
			return hdr, idat, errPNGTruncated
		}
		chunk := data[body : body+n]
		switch typ {
		case "IHDR":
			if n >= 10 {
				hdr.width = int(binary.BigEndian.Uint32(chunk))
				hdr.height = int(binary.BigEndian.Uint32(chunk[4:]))
				hdr.bitDepth = int(chunk[8])
				hdr.colorType = int(chunk[9])
			}
		case "IDAT":
			idat = append(idat, chunk...)
		case "IEND":
			if len(idat) == 0 {
				return hdr, nil, errPNGNoImageData
			}
			return hdr, idat, nil
		}
		p = body + n + 4
	}
}

// pngColors maps a PNG colour type to the component count and colour space.
// Alpha channels stay in the data as an extra component.
func pngColors(colorType int) (int, string) {
	switch colorType {
	case 0:
		return 1, "DeviceGray"
	case 4:
		return 2, "DeviceGray"
	case 6:
		return 4, "DeviceRGB"
	}
	return 3, "DeviceRGB"
}

// EmbedPNG serializes a PNG as an image XObject, passing the zlib data of its
// IDAT chunks through with a PNG predictor. Files that cannot be walked are
// embedded as-is with a warning.
func EmbedPNG(id writer.ObjectID, data []byte, log observability.Logger) []byte {
	hdr, idat, err := readPNG(data)
	if err != nil {
		observability.OrNop(log).Warn("png embedded without decoding",
			observability.Int("object", int(id)),
			observability.Error("error", err))
		idat = data
	}
	colors, cs := pngColors(hdr.colorType)
	dict := fmt.Sprintf("/Type/XObject/Subtype/Image/Width %d/Height %d/ColorSpace/%s/BitsPerComponent %d"+
		"/Filter[/%s/FlateDecode]/DecodeParms[null<</Predictor 15/Colors %d/Columns %d/BitsPerComponent %d>>]",
		hdr.width, hdr.height, cs, hdr.bitDepth, filters.ASCIIHexName, colors, hdr.width, hdr.bitDepth)
	return writer.AppendStream(nil, id, dict, filters.AppendASCIIHex(nil, idat))
}

// EmbedJPEG serializes a JPEG as an image XObject. Zero dimensions are read
// from the JPEG header.
func EmbedJPEG(id writer.ObjectID, data []byte, width, height int) []byte {
	if width <= 0 || height <= 0 {
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			width, height = cfg.Width, cfg.Height
		}
	}
	dict := fmt.Sprintf("/Type/XObject/Subtype/Image/Width %d/Height %d/ColorSpace/DeviceRGB/BitsPerComponent 8/Filter[/%s/DCTDecode]",
		width, height, filters.ASCIIHexName)
	return writer.AppendStream(nil, id, dict, filters.AppendASCIIHex(nil, data))
}

// ImageName is the XObject resource name of the i-th image on a page.
func ImageName(i int) string { return "Im" + strconv.Itoa(i) }

// ImageResourceDict renders "/XObject<</Im0 N 0 R...>>" for ids.
func ImageResourceDict(ids []writer.ObjectID) string {
	var b strings.Builder
	b.WriteString("/XObject<<")
	for i, id := range ids {
		b.WriteByte('/')
		b.WriteString(ImageName(i))
		b.WriteByte(' ')
		b.WriteString(id.Ref())
	}
	b.WriteString(">>")
	return b.String()
}

// ImageMatrix maps the unit square onto the box (x, y, w, h) rotated
// counter-clockwise by rotation degrees about the box centre.
func ImageMatrix(x, y, w, h, rotation float64) contentstream.Matrix {
	centred := contentstream.Matrix{w, 0, 0, h, -w / 2, -h / 2}
	return centred.Multiply(contentstream.Rotation(rotation, x+w/2, y+h/2))
}

// DrawImageCommands returns "q <matrix> cm /ImN Do Q".
func DrawImageCommands(index int, x, y, w, h, rotation float64) []byte {
	var cs contentstream.Builder
	cs.Save()
	cs.Concat(ImageMatrix(x, y, w, h, rotation))
	cs.DrawXObject(ImageName(index))
	cs.Restore()
	return cs.Bytes()
}

// DecodeDataURL splits "data:image/<format>;base64,<payload>".
func DecodeDataURL(src string) (format string, data []byte, err error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, ErrNotDataURL
	}
	format = strings.TrimPrefix(mime, "image/")
	data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return normalizeFormat(format), data, nil
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "jpg", "jpeg":
		return "jpeg"
	case "png":
		return "png"
	}
	return strings.ToLower(f)
}

// embeddedImage is an image decoded for one reserved object number.
type embeddedImage struct {
	id            writer.ObjectID
	obj           []byte
	width, height int
}

// embedImage decodes img and serializes it as object id. ok is false when
// the image cannot be used; its number then stays free.
func embedImage(id writer.ObjectID, img Image, log observability.Logger) (embeddedImage, bool) {
	format, data, err := DecodeDataURL(img.Src)
	if err != nil {
		log.Warn("image skipped", observability.Int("object", int(id)), observability.Error("error", err))
		return embeddedImage{}, false
	}
	if img.Format != "" {
		format = normalizeFormat(img.Format)
	}
	out := embeddedImage{id: id}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		out.width, out.height = cfg.Width, cfg.Height
	}
	switch format {
	case "png":
		out.obj = EmbedPNG(id, data, log)
	case "jpeg":
		out.obj = EmbedJPEG(id, data, out.width, out.height)
	default:
		log.Warn("image skipped: unsupported format", observability.Int("object", int(id)), observability.String("format", format))
		return embeddedImage{}, false
	}
	return out, true
}
