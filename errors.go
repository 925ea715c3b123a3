package highlight

import "errors"

// ErrStaleIterator is reported when an iteration state outlives the tree it iterates.
// The state is dropped and a fresh iterator is started the next time the tree is
// highlighted.
var ErrStaleIterator = errors.New("iteration state refers to a tree no longer in the forest")
