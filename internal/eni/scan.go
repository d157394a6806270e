// internal/eni/scan.go
package eni

import "strings"

// indexFold is strings.Index with ASCII case folding. Descriptor tags
// in the field mix cases freely, so every tag search goes through here.
func indexFold(s, sub string) int {
	n := len(sub)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= len(s); i++ {
		if equalFoldAt(s, i, sub) {
			return i
		}
	}
	return -1
}

func equalFoldAt(s string, at int, sub string) bool {
	for j := 0; j < len(sub); j++ {
		if lowerByte(s[at+j]) != lowerByte(sub[j]) {
			return false
		}
	}
	return true
}

func lowerByte(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// findTag returns the position of open in s, requiring the tag name to
// end there. Without the boundary check "<Slave" would also match
// "<SlaveList" and "<Pdo" would match "<PdoMapping".
func findTag(s, open string) int {
	off := 0
	for {
		i := indexFold(s[off:], open)
		if i < 0 {
			return -1
		}
		at := off + i
		end := at + len(open)
		if end >= len(s) {
			return -1
		}
		switch s[end] {
		case ' ', '\t', '\r', '\n', '>', '/':
			return at
		}
		off = end
	}
}

// childText returns the trimmed text of the first <tag>...</tag>
// element in block.
func childText(block, tag string) (string, bool) {
	open := "<" + tag + ">"
	i := indexFold(block, open)
	if i < 0 {
		return "", false
	}
	rest := block[i+len(open):]
	j := indexFold(rest, "</"+tag+">")
	if j < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:j]), true
}

// attrValue returns the raw value of a key="..." attribute within tag.
// The key match is a case-insensitive substring scan and the value may
// be quoted or bare, terminated by whitespace, a quote, '/' or '>'.
func attrValue(tag, key string) (string, bool) {
	i := indexFold(tag, key)
	if i < 0 {
		return "", false
	}
	rest := tag[i+len(key):]
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return "", false
	}
	v := strings.TrimLeft(rest[eq+1:], " \t\"")
	end := 0
	for end < len(v) {
		switch v[end] {
		case ' ', '\t', '\r', '\n', '"', '/', '>':
			return v[:end], true
		}
		end++
	}
	return v, true
}
