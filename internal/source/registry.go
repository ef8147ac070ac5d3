package source

// Standard returns the reference probes that work on every platform,
// plus whatever platform-specific probes are reachable on this host.
// Probes that fail to initialise are skipped, not errors: an audit runs
// over whatever the host can offer.
func Standard() []Source {
	sources := []Source{
		ClockJitterSource{},
		NewMemoryWalkSource(),
		SchedYieldSource{},
		NewHashTimingSource(0),
		NewFsyncJournalSource(""),
	}
	return append(sources, platformSources()...)
}
