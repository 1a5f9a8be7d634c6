package captable

import "github.com/xraph/captable/id"

// ID is the primary identifier type for all cap-table records.
type ID = id.ID

// Prefix identifies the record kind encoded in a TypeID.
type Prefix = id.Prefix
