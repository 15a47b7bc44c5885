package importer

import (
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// decodeSource converts supplier exports to UTF-8 before they are uploaded.
func decodeSource(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(encoding) {
	case "windows-1251", "cp1251":
		return transform.NewReader(r, charmap.Windows1251.NewDecoder())
	}
	return r
}
