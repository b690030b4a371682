package kernfat

import (
	"fmt"
	"strings"

	"github.com/aligator/kernfat/checkpoint"
)

// ParseName splits "name.ext" into the fixed size fields of a directory entry.
// The name is split at the first dot, the name part has to be 1 to 8 bytes
// and the extension at most 3 bytes. Unused bytes stay zero.
func ParseName(full string) (name [8]byte, ext [3]byte, err error) {
	if full == "" || full == "." || full == ".." {
		return name, ext, checkpoint.Wrap(fmt.Errorf("name: %q", full), ErrInvalidName)
	}
	if strings.ContainsAny(full, "/\\\x00") {
		return name, ext, checkpoint.Wrap(fmt.Errorf("name: %q contains a forbidden character", full), ErrInvalidName)
	}

	base, extension := full, ""
	if i := strings.IndexByte(full, '.'); i >= 0 {
		base, extension = full[:i], full[i+1:]
	}

	if len(base) == 0 || len(base) > len(name) || len(extension) > len(ext) {
		return name, ext, checkpoint.Wrap(fmt.Errorf("name: %q does not fit 8.3", full), ErrInvalidName)
	}

	copy(name[:], base)
	copy(ext[:], extension)
	return name, ext, nil
}

// FormatName joins the fields of a directory entry to "name.ext".
// Without an extension only the name is returned.
func FormatName(name [8]byte, ext [3]byte) string {
	n := trimField(name[:])
	e := trimField(ext[:])
	if e == "" {
		return n
	}
	return n + "." + e
}

// trimField removes the padding of a fixed size name field.
func trimField(field []byte) string {
	return strings.TrimRight(string(field), "\x00 ")
}
