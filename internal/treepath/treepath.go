// Package treepath encodes positions in a materialized-path tree.
//
// A path is a concatenation of fixed-width steps. Each step is a number in
// base 36 (0-9A-Z), left padded with zeros; step values start at 1 so the
// first root of a tree with a step length of 4 is "0001" and its first child
// is "00010001".
package treepath

import (
	"strings"

	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
)

// Alphabet is the digit set of one step.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultStepLength is used when no step length is configured.
const DefaultStepLength = 4

// Codec performs path arithmetic for one step length.
// It is immutable and safe for concurrent use.
type Codec struct {
	step int
	max  int
}

// New creates a codec. The step length must be between 1 and 8.
func New(stepLength int) (*Codec, error) {
	if stepLength < 1 || stepLength > 8 {
		return nil, domainerrors.InvalidPathf("step length %d out of range", stepLength)
	}
	limit := 1
	for range stepLength {
		limit *= len(Alphabet)
	}
	return &Codec{step: stepLength, max: limit - 1}, nil
}

// MustNew is New for package-level codecs and tests.
func MustNew(stepLength int) *Codec {
	c, err := New(stepLength)
	if err != nil {
		panic(err)
	}
	return c
}

// StepLength returns the width of one step.
func (c *Codec) StepLength() int {
	return c.step
}

// MaxSteps returns the largest value one step can hold, which is the
// maximum number of children a node can ever have.
func (c *Codec) MaxSteps() int {
	return c.max
}

// Valid reports whether path is a non-empty sequence of whole steps.
func (c *Codec) Valid(path string) bool {
	if path == "" || len(path)%c.step != 0 {
		return false
	}
	for i := 0; i < len(path); i++ {
		if strings.IndexByte(Alphabet, path[i]) < 0 {
			return false
		}
	}
	return true
}

// Depth returns the number of steps in path. Roots have depth 1.
func (c *Codec) Depth(path string) int {
	return len(path) / c.step
}

// Parent removes the last step. Root paths have no parent.
func (c *Codec) Parent(path string) (string, error) {
	if !c.Valid(path) {
		return "", domainerrors.InvalidPathf("malformed path %q", path)
	}
	if len(path) == c.step {
		return "", domainerrors.InvalidPathf("root path %q has no parent", path)
	}
	return path[:len(path)-c.step], nil
}

// Ancestors returns every strict prefix of path, root first.
func (c *Codec) Ancestors(path string) []string {
	depth := c.Depth(path)
	if depth <= 1 {
		return nil
	}
	out := make([]string, 0, depth-1)
	for end := c.step; end < len(path); end += c.step {
		out = append(out, path[:end])
	}
	return out
}

// LastStep returns the final step of path.
func (c *Codec) LastStep(path string) string {
	if len(path) < c.step {
		return path
	}
	return path[len(path)-c.step:]
}

// Encode renders n as one step.
func (c *Codec) Encode(n int) (string, error) {
	if n < 0 || n > c.max {
		return "", domainerrors.InvalidPathf("step value %d out of range", n)
	}
	buf := make([]byte, c.step)
	for i := c.step - 1; i >= 0; i-- {
		buf[i] = Alphabet[n%len(Alphabet)]
		n /= len(Alphabet)
	}
	return string(buf), nil
}

// Decode parses one step.
func (c *Codec) Decode(step string) (int, error) {
	if len(step) != c.step {
		return 0, domainerrors.InvalidPathf("step %q has wrong width", step)
	}
	n := 0
	for i := 0; i < len(step); i++ {
		d := strings.IndexByte(Alphabet, step[i])
		if d < 0 {
			return 0, domainerrors.InvalidPathf("step %q has invalid digit", step)
		}
		n = n*len(Alphabet) + d
	}
	return n, nil
}

// Child returns the path of the n-th child of parent. An empty parent
// addresses the root level.
func (c *Codec) Child(parent string, n int) (string, error) {
	step, err := c.Encode(n)
	if err != nil {
		return "", err
	}
	return parent + step, nil
}

// First returns the path of the first child of parent.
func (c *Codec) First(parent string) string {
	p, _ := c.Child(parent, 1)
	return p
}

// Next returns the path of the sibling immediately after path.
func (c *Codec) Next(path string) (string, error) {
	return c.shift(path, 1)
}

// Prev returns the path of the sibling immediately before path.
func (c *Codec) Prev(path string) (string, error) {
	return c.shift(path, -1)
}

func (c *Codec) shift(path string, delta int) (string, error) {
	if !c.Valid(path) {
		return "", domainerrors.InvalidPathf("malformed path %q", path)
	}
	n, err := c.Decode(c.LastStep(path))
	if err != nil {
		return "", err
	}
	if n+delta < 1 {
		return "", domainerrors.InvalidPathf("no sibling before %q", path)
	}
	step, err := c.Encode(n + delta)
	if err != nil {
		return "", domainerrors.InvalidPathf("sibling steps exhausted after %q", path)
	}
	return path[:len(path)-c.step] + step, nil
}

// CommonPrefix returns the longest common prefix of paths, rounded down to
// a whole number of steps. It returns "" when paths is empty or when the
// paths share no whole step.
func (c *Codec) CommonPrefix(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := paths[0]
	for _, p := range paths[1:] {
		n := 0
		for n < len(prefix) && n < len(p) && prefix[n] == p[n] {
			n++
		}
		prefix = prefix[:n]
		if prefix == "" {
			return ""
		}
	}
	return prefix[:len(prefix)-len(prefix)%c.step]
}

// IsDescendant reports whether path lies strictly below ancestor.
func IsDescendant(path, ancestor string) bool {
	return len(path) > len(ancestor) && strings.HasPrefix(path, ancestor)
}
