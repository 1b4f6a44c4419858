package classify

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// HeadSize is the number of leading bytes inspected
const HeadSize = 8192

// Extension is a file extension including the leading dot, e.g. ".png"
type Extension string

type signature struct {
	ext   Extension
	match func(head []byte) bool
}

// Order matters: apng before png and cr2 before tif.
var signatures = []signature{
	{".dwg", isDWG},
	{".xcf", isXCF},
	{".jpg", isJPEG},
	{".jpx", isJPX},
	{".apng", isAPNG},
	{".png", isPNG},
	{".gif", isGIF},
	{".webp", isWebP},
	{".cr2", isCR2},
	{".tif", isTIFF},
	{".bmp", isBMP},
	{".jxr", isJXR},
	{".psd", isPSD},
	{".ico", isICO},
	{".heic", isHEIC},
}

// probeExtensions is the set of suffixes an existing download may carry.
// It includes aliases the classifier never produces (.jpeg, .tiff) and the bare name.
var probeExtensions = []Extension{
	"", ".dwg", ".xcf", ".jpg", ".jpeg", ".jpx", ".png", ".apng", ".gif",
	".webp", ".cr2", ".tif", ".tiff", ".bmp", ".jxr", ".psd", ".ico", ".heic",
}

// KnownExtensions returns the ordered list of suffixes to probe for an existing download
func KnownExtensions() []Extension {
	out := make([]Extension, len(probeExtensions))
	copy(out, probeExtensions)
	return out
}

// Match returns the extension of the first signature matching head
func Match(head []byte) (Extension, bool) {
	for _, sig := range signatures {
		if sig.match(head) {
			return sig.ext, true
		}
	}
	return "", false
}

// Classify reads the head of the file at path and matches it against the signature table.
// A file that matches nothing returns false and a nil error.
func Classify(fs afero.Fs, path string) (Extension, bool, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, HeadSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}

	ext, ok := Match(head[:n])
	return ext, ok, nil
}

func hasPrefix(b []byte, prefix ...byte) bool {
	return bytes.HasPrefix(b, prefix)
}

func isDWG(b []byte) bool {
	return bytes.HasPrefix(b, []byte("AC10"))
}

func isXCF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("gimp xcf "))
}

func isJPEG(b []byte) bool {
	return hasPrefix(b, 0xFF, 0xD8, 0xFF)
}

func isJPX(b []byte) bool {
	return len(b) >= 24 &&
		hasPrefix(b, 0x00, 0x00, 0x00, 0x0C) &&
		string(b[16:24]) == "ftypjp2 "
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// isAPNG walks PNG chunks looking for an animation control chunk before the first image data.
func isAPNG(b []byte) bool {
	if !bytes.HasPrefix(b, pngMagic) {
		return false
	}
	i := len(pngMagic)
	for i+8 <= len(b) {
		length := binary.BigEndian.Uint32(b[i : i+4])
		switch string(b[i+4 : i+8]) {
		case "acTL":
			return true
		case "IDAT", "IEND":
			return false
		}
		// length, type, data, crc
		next := uint64(i) + 12 + uint64(length)
		if next > uint64(len(b)) {
			return false
		}
		i = int(next)
	}
	return false
}

func isPNG(b []byte) bool {
	return hasPrefix(b, 0x89, 'P', 'N', 'G')
}

func isGIF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("GIF"))
}

func isWebP(b []byte) bool {
	return len(b) >= 12 && string(b[8:12]) == "WEBP"
}

func isTIFFHeader(b []byte) bool {
	return hasPrefix(b, 'I', 'I', 0x2A, 0x00) || hasPrefix(b, 'M', 'M', 0x00, 0x2A)
}

func isCR2(b []byte) bool {
	return len(b) >= 10 && isTIFFHeader(b) && b[8] == 'C' && b[9] == 'R'
}

func isTIFF(b []byte) bool {
	return isTIFFHeader(b) && !isCR2(b)
}

func isBMP(b []byte) bool {
	return bytes.HasPrefix(b, []byte("BM"))
}

func isJXR(b []byte) bool {
	return hasPrefix(b, 'I', 'I', 0xBC)
}

func isPSD(b []byte) bool {
	return bytes.HasPrefix(b, []byte("8BPS"))
}

func isICO(b []byte) bool {
	return hasPrefix(b, 0x00, 0x00, 0x01, 0x00)
}

// isHEIC inspects the ISO-BMFF ftyp box for a HEIC major brand, or a generic
// image brand listing heic among its compatible brands.
func isHEIC(b []byte) bool {
	if len(b) < 12 || string(b[4:8]) != "ftyp" {
		return false
	}
	boxSize := int(binary.BigEndian.Uint32(b[0:4]))
	if boxSize > len(b) {
		boxSize = len(b)
	}

	switch string(b[8:12]) {
	case "heic":
		return true
	case "mif1", "msf1":
		for i := 16; i+4 <= boxSize; i += 4 {
			if string(b[i:i+4]) == "heic" {
				return true
			}
		}
	}
	return false
}
