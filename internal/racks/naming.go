package racks

import (
	"fmt"
	"regexp"
	"strconv"
)

var copySuffixPattern = regexp.MustCompile(`^(.*) \((\d+)\)$`)

// BaseName strips a trailing " (n)" copy suffix from a rack name.
func BaseName(name string) string {
	if m := copySuffixPattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}

// NextCopyName derives the name for a copy of source given every existing
// rack name. Names sharing the source's base are ranked by suffix, with
// the plain base counting as 1, and the copy takes max+1.
func NextCopyName(source string, existing []string) string {
	base := BaseName(source)
	max := 0
	for _, name := range existing {
		suffix := 0
		if name == base {
			suffix = 1
		} else if m := copySuffixPattern.FindStringSubmatch(name); m != nil && m[1] == base {
			if n, err := strconv.Atoi(m[2]); err == nil {
				suffix = n
			}
		}
		if suffix > max {
			max = suffix
		}
	}
	if max == 0 {
		max = 1
	}
	return fmt.Sprintf("%s (%d)", base, max+1)
}
