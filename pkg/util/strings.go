package util

import "strconv"

// ParseIntDefault parses s as a base-10 int, falling back to def when s is
// empty or malformed. Query-string helpers never surface parse errors.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}
