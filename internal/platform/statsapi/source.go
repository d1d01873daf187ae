package statsapi

// Source tells whether data came from the API or was substituted locally.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// SourceHeader carries the Source of a response's data to clients.
const SourceHeader = "X-Data-Source"

// Worst returns fallback if any of the given sources is fallback.
func Worst(sources ...Source) Source {
	for _, s := range sources {
		if s == SourceFallback {
			return SourceFallback
		}
	}
	return SourceLive
}
