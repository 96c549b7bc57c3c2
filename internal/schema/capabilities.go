package schema

// Capabilities records what a dialect can express in DDL. The generator
// and the validation pipeline both consult this table instead of
// branching on the dialect directly.
type Capabilities struct {
	PartialIndexes        bool
	CoveringIndexes       bool
	ExpressionIndexes     bool
	CheckConstraints      bool
	DeferrableConstraints bool
	Comments              bool
	AutoIncrement         bool
	Sequences             bool

	MaxTableName      int
	MaxColumnName     int
	MaxIndexName      int
	MaxConstraintName int

	IndexTypes map[IndexType]bool
}

// SupportsIndexType reports whether the dialect accepts the given access method.
// An empty index type is always allowed (engine default).
func (c Capabilities) SupportsIndexType(t IndexType) bool {
	if t == "" {
		return true
	}
	return c.IndexTypes[t]
}

var capabilityTable = map[Dialect]Capabilities{
	MySQL: {
		PartialIndexes:        false,
		CoveringIndexes:       false,
		ExpressionIndexes:     true,
		CheckConstraints:      true,
		DeferrableConstraints: false,
		Comments:              true,
		AutoIncrement:         true,
		Sequences:             false,
		MaxTableName:          64,
		MaxColumnName:         64,
		MaxIndexName:          64,
		MaxConstraintName:     64,
		IndexTypes:            map[IndexType]bool{BTree: true, Hash: true},
	},
	Postgres: {
		PartialIndexes:        true,
		CoveringIndexes:       true,
		ExpressionIndexes:     true,
		CheckConstraints:      true,
		DeferrableConstraints: true,
		Comments:              true,
		AutoIncrement:         false,
		Sequences:             true,
		MaxTableName:          63,
		MaxColumnName:         63,
		MaxIndexName:          63,
		MaxConstraintName:     63,
		IndexTypes: map[IndexType]bool{
			BTree: true, Hash: true, GIN: true, GiST: true, SPGiST: true, BRIN: true,
		},
	},
	SQLite: {
		PartialIndexes:        true,
		CoveringIndexes:       false,
		ExpressionIndexes:     true,
		CheckConstraints:      true,
		DeferrableConstraints: true,
		Comments:              false,
		AutoIncrement:         true,
		Sequences:             false,
		MaxTableName:          0, // SQLite has no practical identifier limit
		MaxColumnName:         0,
		MaxIndexName:          0,
		MaxConstraintName:     0,
		IndexTypes:            map[IndexType]bool{BTree: true},
	},
}

// defaultMaxIdentifier applies when a dialect declares no limit of its own.
const defaultMaxIdentifier = 63

// CapabilitiesFor returns the capability row for a dialect. Unknown
// dialects get the most restrictive defaults so callers fail safe.
func CapabilitiesFor(d Dialect) Capabilities {
	caps, ok := capabilityTable[d]
	if !ok {
		return Capabilities{
			MaxTableName:      defaultMaxIdentifier,
			MaxColumnName:     defaultMaxIdentifier,
			MaxIndexName:      defaultMaxIdentifier,
			MaxConstraintName: defaultMaxIdentifier,
			IndexTypes:        map[IndexType]bool{},
		}
	}
	if caps.MaxTableName == 0 {
		caps.MaxTableName = defaultMaxIdentifier
	}
	if caps.MaxColumnName == 0 {
		caps.MaxColumnName = defaultMaxIdentifier
	}
	if caps.MaxIndexName == 0 {
		caps.MaxIndexName = defaultMaxIdentifier
	}
	if caps.MaxConstraintName == 0 {
		caps.MaxConstraintName = defaultMaxIdentifier
	}
	return caps
}
