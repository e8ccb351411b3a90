package main

import (
	"github.com/spf13/pflag"
)

// bind ties a flag to a config key. Unset flags leave env and file values
// in place.
func (c *cli) bind(f *pflag.Flag, key string) {
	if f == nil {
		panic("proctorcam: unknown flag for " + key)
	}
	if err := c.v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
