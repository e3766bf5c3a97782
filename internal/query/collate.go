package query

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collator wraps an English collate.Collator. A collator is not safe for
// concurrent use, so every sort builds its own.
type collator struct {
	c *collate.Collator
}

func newCollator() collator {
	return collator{c: collate.New(language.English)}
}

func (c collator) compare(a, b string) int {
	return c.c.CompareString(a, b)
}
