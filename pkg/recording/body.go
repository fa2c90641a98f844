package recording

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// decodeContent undoes a Content-Encoding. It reports false when the encoding
// is absent, unsupported, or the payload does not decode; the caller then
// keeps the bytes as they came off the wire.
func decodeContent(encoding string, data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return data, false
	}

	var (
		out []byte
		err error
	)

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		var zr *gzip.Reader
		if zr, err = gzip.NewReader(bytes.NewReader(data)); err == nil {
			out, err = io.ReadAll(zr)
			_ = zr.Close()
		}
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		var zr io.ReadCloser
		if zr, err = zlib.NewReader(bytes.NewReader(data)); err == nil {
			out, err = io.ReadAll(zr)
			_ = zr.Close()
		}
		if err != nil {
			fr := flate.NewReader(bytes.NewReader(data))
			out, err = io.ReadAll(fr)
			_ = fr.Close()
		}
	case "zstd":
		var dec *zstd.Decoder
		if dec, err = zstd.NewReader(nil); err == nil {
			out, err = dec.DecodeAll(data, nil)
			dec.Close()
		}
	default:
		return data, false
	}

	if err != nil {
		return data, false
	}
	return out, true
}
