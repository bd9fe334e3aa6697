package il

import "fmt"

// VarID packs a variable's base identity, its SSA version, and the temp
// flag into a single integer. Base ids occupy the high 32 bits (with the
// temp flag as the top bit of the whole id), versions occupy the low 32.
type VarID uint64

const (
	// VariableTempFlag marks a VarID as a compiler-generated single
	// assignment temp, exempt from phi construction.
	VariableTempFlag VarID = 1 << 63

	versionBits      = 32
	versionMask VarID = 1<<versionBits - 1

	// VersionStripMask clears the version bits, leaving the base id
	// (with its temp flag) as if version were 0.
	VersionStripMask VarID = ^versionMask

	baseShift = versionBits
)

// NewVarID builds a VarID from a base id, a version, and the temp flag.
func NewVarID(base uint32, version uint32, temp bool) VarID {
	id := VarID(base)<<baseShift | VarID(version)
	if temp {
		id |= VariableTempFlag
	}
	return id
}

// Base strips the version, returning the variable's base identity
// (version 0, temp flag preserved).
func (v VarID) Base() VarID { return v & VersionStripMask }

// BaseIndex returns the raw base id without the temp flag, suitable for
// indexing into ILMetadata's variable arena.
func (v VarID) BaseIndex() uint32 {
	return uint32((v &^ VariableTempFlag) >> baseShift)
}

// Version returns the SSA version component.
func (v VarID) Version() uint32 { return uint32(v & versionMask) }

// WithVersion returns a copy of v with its version replaced.
func (v VarID) WithVersion(version uint32) VarID {
	return v.Base() | VarID(version)
}

// IsTemp reports whether v carries the temp flag.
func (v VarID) IsTemp() bool { return v&VariableTempFlag != 0 }

func (v VarID) String() string {
	kind := "v"
	if v.IsTemp() {
		kind = "t"
	}
	if ver := v.Version(); ver != 0 {
		return fmt.Sprintf("%%%s%d@%d", kind, v.BaseIndex(), ver)
	}
	return fmt.Sprintf("%%%s%d", kind, v.BaseIndex())
}
