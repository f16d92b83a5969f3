// Package classifier resolves numeric chunk-class codes to a boolean
// "strand-like" verdict, per spec.md §4.3.
package classifier

import "readuntil-client/logger"

// strandLikeNames is the fixed set of class names considered
// strand-like, per spec.md §4.3 and the GLOSSARY.
var strandLikeNames = map[string]bool{
	"strand":      true,
	"strand1":     true,
	"adapter":     true,
	"unavailable": true,
}

// Classifier is initialized once from a session-wide class-code to
// class-name mapping, obtained at startup (spec.md §6). Its decisions
// are stable for the duration of a session.
type Classifier struct {
	names map[int32]string
	log   logger.Logger
}

// New builds a Classifier from the session's class-code map. The map is
// copied; later mutation of the caller's map has no effect.
func New(classMap map[int32]string, opts ...Option) *Classifier {
	c := &Classifier{
		names: make(map[int32]string, len(classMap)),
		log:   logger.Default,
	}
	for code, name := range classMap {
		c.names[code] = name
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures a Classifier at construction.
type Option func(*Classifier)

// WithLogger overrides the default logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Classifier) { c.log = l }
}

// IsStrandLike reports whether any code in the chunk's ordered
// classification sequence maps to a strand-like name. An unknown code
// (rerrors.ClassifierUnknownCode) is treated as not strand-like and
// logged at debug, never fatal.
func (c *Classifier) IsStrandLike(codes []int32) bool {
	for _, code := range codes {
		name, ok := c.names[code]
		if !ok {
			c.log.Debugf("classifier: unknown class code %d, treating as not strand-like", code)
			continue
		}
		if strandLikeNames[name] {
			return true
		}
	}
	return false
}
