//go:build !linux

package source

func platformSources() []Source { return nil }
