package input

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"

	"github.com/tagprompt/tagprompt/internal/i18n"
	debuglog "github.com/tagprompt/tagprompt/internal/log"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// parameterKeys are the text chunk keywords that carry a prompt, in order of
// preference.
var parameterKeys = []string{"parameters", "Description"}

// ReadPNGParameters returns the generation parameters stored in the text
// chunks (tEXt, zTXt, iTXt) of a PNG image.
func ReadPNGParameters(data []byte) (string, error) {
	chunks, err := readTextChunks(data)
	if err != nil {
		return "", err
	}
	for _, key := range parameterKeys {
		if text, ok := chunks[key]; ok {
			return text, nil
		}
	}
	return "", errors.New(i18n.T("input_error_png_no_parameters"))
}

// readTextChunks collects the text chunks of a PNG keyed by keyword. The
// first chunk of a keyword wins.
func readTextChunks(data []byte) (map[string]string, error) {
	malformed := func(format string, args ...interface{}) error {
		return errors.Wrap(errors.Errorf(format, args...), i18n.T("input_error_png_malformed"))
	}

	if !bytes.HasPrefix(data, []byte(pngSignature)) {
		return nil, malformed("missing signature")
	}

	chunks := map[string]string{}
	for rest := data[len(pngSignature):]; len(rest) > 0; {
		if len(rest) < 12 {
			return nil, malformed("truncated chunk header")
		}
		length := binary.BigEndian.Uint32(rest[:4])
		if uint64(length)+12 > uint64(len(rest)) {
			return nil, malformed("chunk length %d exceeds data", length)
		}
		kind := string(rest[4:8])
		body := rest[8 : 8+length]
		sum := binary.BigEndian.Uint32(rest[8+length : 12+length])
		if crc32.ChecksumIEEE(rest[4:8+length]) != sum {
			return nil, malformed("bad crc in %s chunk", kind)
		}
		rest = rest[12+length:]

		if kind == "IEND" {
			break
		}
		key, text, ok, err := decodeTextChunk(kind, body)
		if err != nil {
			return nil, errors.Wrap(err, i18n.T("input_error_png_malformed"))
		}
		if !ok {
			continue
		}
		debuglog.Debug(debuglog.Trace, "png %s chunk %q (%d bytes)\n", kind, key, len(text))
		if _, seen := chunks[key]; !seen {
			chunks[key] = text
		}
	}
	return chunks, nil
}

func decodeTextChunk(kind string, body []byte) (key, text string, ok bool, err error) {
	switch kind {
	case "tEXt", "zTXt", "iTXt":
	default:
		return "", "", false, nil
	}

	rawKey, rest, found := bytes.Cut(body, []byte{0})
	if !found {
		return "", "", false, errors.Errorf("%s chunk without keyword terminator", kind)
	}
	key = string(rawKey)

	switch kind {
	case "tEXt":
		text, err = latin1(rest)
	case "zTXt":
		if len(rest) < 1 {
			return "", "", false, errors.New("zTXt chunk without compression method")
		}
		var inflated []byte
		if inflated, err = inflate(rest[1:]); err == nil {
			text, err = latin1(inflated)
		}
	case "iTXt":
		text, err = decodeITXt(rest)
	}
	return key, text, err == nil, err
}

// decodeITXt reads the part of an iTXt chunk after the keyword:
// compression flag, method, language tag, translated keyword, UTF-8 text.
func decodeITXt(rest []byte) (string, error) {
	if len(rest) < 2 {
		return "", errors.New("iTXt chunk too short")
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	for i := 0; i < 2; i++ {
		var found bool
		if _, rest, found = bytes.Cut(rest, []byte{0}); !found {
			return "", errors.New("iTXt chunk missing terminator")
		}
	}
	if !compressed {
		return string(rest), nil
	}
	inflated, err := inflate(rest)
	return string(inflated), err
}

// maxInflatedText caps a decompressed text chunk.
const maxInflatedText = 4 << 20

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, maxInflatedText+1))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(out) > maxInflatedText {
		return nil, errors.Errorf("compressed text chunk inflates past %d bytes", maxInflatedText)
	}
	return out, nil
}

func latin1(data []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(out), errors.WithStack(err)
}
