// SPDX-License-Identifier: MPL-2.0

package download

const (
	StateResolvingEndpoint State = iota
	StateResolvingVersion
	StateCheckingCache
	StateCacheHit
	StateFetching
	StateStoring
	StateWriting
	StateDone
	StateError
)

// State is a step of the download pipeline.
type State int

func (s State) String() string {
	switch s {
	case StateResolvingEndpoint:
		return "ResolvingEndpoint"
	case StateResolvingVersion:
		return "ResolvingVersion"
	case StateCheckingCache:
		return "CheckingCache"
	case StateCacheHit:
		return "CacheHit"
	case StateFetching:
		return "Fetching"
	case StateStoring:
		return "Storing"
	case StateWriting:
		return "Writing"
	case StateDone:
		return "Done"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}
