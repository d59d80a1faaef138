package sql

import "github.com/relixdb/queryengine/queryerr"

// ErrStarNotResolved is raised if a wildcard expression somehow survives
// past Select.init(), which is expected to replace every Star with
// concrete column references (spec.md §4.1 invariant "after init, no
// Wildcard remains in expressions").
var ErrStarNotResolved = queryerr.ErrInternal.New("unresolved wildcard expression reached evaluation")
