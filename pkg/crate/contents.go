package crate

import (
	"crypto/sha512"
	"io"
	"sort"
)

// Contents maps archive-relative paths to a digest of their canonicalized
// bytes. Entries on the ignore-list never appear in a Contents map.
type Contents map[string][sha512.Size]byte

// Outcome is the per-path verdict of comparing two archives.
type Outcome int

const (
	// Equal means the path exists in both archives with identical digests.
	Equal Outcome = iota
	// Different means the path exists in both archives with differing digests.
	Different
	// OnlyLeft means the path exists only in the left archive.
	OnlyLeft
	// OnlyRight means the path exists only in the right archive.
	OnlyRight
)

func (o Outcome) String() string {
	switch o {
	case Equal:
		return "equal"
	case Different:
		return "different"
	case OnlyLeft:
		return "only-left"
	case OnlyRight:
		return "only-right"
	default:
		return "unknown"
	}
}

// Comparison is one per-path verdict.
type Comparison struct {
	Path    string
	Outcome Outcome
}

// Digest streams every entry of the archive and computes a SHA-512 over
// the entry's bytes with all ASCII whitespace removed, so formatting-only
// differences (trailing newlines, indentation changes) never cause false
// mismatches. Entries whose basename is on the ignore-list are skipped
// entirely.
func Digest(a *Archive) (Contents, error) {
	contents := make(Contents)
	err := a.walk(func(name string, r io.Reader) error {
		if ignoredBasename(name) {
			return nil
		}
		sum, err := whitespaceStrippedSHA512(r)
		if err != nil {
			return err
		}
		contents[name] = sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// whitespaceStrippedSHA512 feeds r through the hash, dropping ASCII
// whitespace bytes before updating the hash state.
func whitespaceStrippedSHA512(r io.Reader) (sum [sha512.Size]byte, err error) {
	h := sha512.New()
	buf := make([]byte, 32*1024)
	keep := make([]byte, 0, len(buf))

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			keep = keep[:0]
			for _, b := range buf[:n] {
				if !isASCIIWhitespace(b) {
					keep = append(keep, b)
				}
			}
			h.Write(keep)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return sum, rerr
		}
	}

	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// isASCIIWhitespace matches space, tab, newline, form feed and carriage
// return.
func isASCIIWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// Compare diffs two content maps. Every left path is classified as Equal,
// Different or OnlyLeft; right paths absent from left become OnlyRight.
// Results are ordered by path, left-side verdicts first, for reproducible
// diagnostics.
func Compare(left, right Contents) []Comparison {
	var out []Comparison

	for _, path := range sortedPaths(left) {
		rightSum, ok := right[path]
		switch {
		case !ok:
			out = append(out, Comparison{Path: path, Outcome: OnlyLeft})
		case left[path] == rightSum:
			out = append(out, Comparison{Path: path, Outcome: Equal})
		default:
			out = append(out, Comparison{Path: path, Outcome: Different})
		}
	}

	for _, path := range sortedPaths(right) {
		if _, ok := left[path]; !ok {
			out = append(out, Comparison{Path: path, Outcome: OnlyRight})
		}
	}

	return out
}

func sortedPaths(c Contents) []string {
	paths := make([]string, 0, len(c))
	for p := range c {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
