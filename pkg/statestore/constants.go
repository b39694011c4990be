package statestore

// NullStartKey and NullEndKey are the sentinel values for an open-ended
// range bound at the public API boundary: "first live key" and "last live
// key" respectively. A nil raw key is never passed to the underlying
// engine; ResolveRange always substitutes the concrete bound first.
//
// A nil slice cannot be confused with any encoded key, since Coder
// implementations never produce a nil encoding for a present key.
var (
	NullStartKey []byte
	NullEndKey   []byte
)

func isNullStartKey(key []byte) bool { return key == nil }

func isNullEndKey(key []byte) bool { return key == nil }
