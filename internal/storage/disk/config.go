package disk

// Config holds settings for the flat-file backend
type Config struct {
	// Root is the accounts directory all paths are relative to
	Root string

	// AtomicWrites writes to a temp file, syncs and renames it over the
	// target. When false, files are truncated and rewritten in place, so a
	// crash mid-write can leave a partial file.
	AtomicWrites bool
}

// DefaultConfig returns the default flat-file configuration
func DefaultConfig() Config {
	return Config{
		Root:         "lib/acctfiles",
		AtomicWrites: false,
	}
}
