package convert

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// Charset resolves a charset name such as "windows-1250" or "iso-8859-2".
// An empty name or "utf-8" returns nil: the input is read as is.
func Charset(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "cp1250":
		return charmap.Windows1250, nil
	case "cp1252":
		return charmap.Windows1252, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("convert: unknown charset %q: %w", name, err)
	}
	return enc, nil
}
