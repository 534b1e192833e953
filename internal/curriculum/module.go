package curriculum

import "fmt"

// ModuleID identifies a course module. Adding a module means adding a
// variant here, a row in moduleTable and its chapters in the catalog.
type ModuleID int

const (
	ModuleUnknown ModuleID = iota
	ModuleWeb3Basics
	ModuleSolidity
	ModuleDeFi
	ModuleAdvocate
)

// DefaultModule is served when a read names a module the registry does not know
const DefaultModule = ModuleWeb3Basics

// Scoring controls how finished chapters are recorded
type Scoring int

const (
	// ScoringNone records finished chapters as bare ids
	ScoringNone Scoring = iota
	// ScoringByLevel awards points per finished chapter by its level
	ScoringByLevel
)

func (s Scoring) String() string {
	if s == ScoringByLevel {
		return "level"
	}
	return "none"
}

// MarshalText implements encoding.TextMarshaler
func (s Scoring) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Scoring) UnmarshalText(text []byte) error {
	switch string(text) {
	case "level":
		*s = ScoringByLevel
	case "none":
		*s = ScoringNone
	default:
		return fmt.Errorf("unknown scoring %q", string(text))
	}
	return nil
}

// ClaimMode controls where a module's certification claims are stored
type ClaimMode int

const (
	// ClaimRecord stores one claim row per user and module
	ClaimRecord ClaimMode = iota
	// ClaimLedger appends claims to the user's shared certification ledger
	ClaimLedger
)

func (c ClaimMode) String() string {
	if c == ClaimLedger {
		return "ledger"
	}
	return "record"
}

// MarshalText implements encoding.TextMarshaler
func (c ClaimMode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *ClaimMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ledger":
		*c = ClaimLedger
	case "record":
		*c = ClaimRecord
	default:
		return fmt.Errorf("unknown claim mode %q", string(text))
	}
	return nil
}

type moduleInfo struct {
	key       string
	scoring   Scoring
	claimMode ClaimMode
}

var moduleTable = map[ModuleID]moduleInfo{
	ModuleWeb3Basics: {key: "web3-basics", scoring: ScoringNone, claimMode: ClaimRecord},
	ModuleSolidity:   {key: "solidity", scoring: ScoringByLevel, claimMode: ClaimRecord},
	ModuleDeFi:       {key: "defi", scoring: ScoringByLevel, claimMode: ClaimLedger},
	ModuleAdvocate:   {key: "advocate", scoring: ScoringNone, claimMode: ClaimLedger},
}

// moduleOrder is the listing order for catalog responses
var moduleOrder = []ModuleID{ModuleWeb3Basics, ModuleSolidity, ModuleDeFi, ModuleAdvocate}

// String returns the module's storage and URL key
func (m ModuleID) String() string {
	if info, ok := moduleTable[m]; ok {
		return info.key
	}
	return "unknown"
}

// Scoring returns the module's chapter scoring rule
func (m ModuleID) Scoring() Scoring {
	return moduleTable[m].scoring
}

// ClaimMode returns where the module's claims are stored
func (m ModuleID) ClaimMode() ClaimMode {
	return moduleTable[m].claimMode
}

// MarshalText implements encoding.TextMarshaler
func (m ModuleID) MarshalText() ([]byte, error) {
	if _, ok := moduleTable[m]; !ok {
		return nil, fmt.Errorf("unknown module id %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *ModuleID) UnmarshalText(text []byte) error {
	id, ok := ParseModuleID(string(text))
	if !ok {
		return fmt.Errorf("unknown module %q", string(text))
	}
	*m = id
	return nil
}

// ParseModuleID maps a module key to its variant
func ParseModuleID(key string) (ModuleID, bool) {
	for id, info := range moduleTable {
		if info.key == key {
			return id, true
		}
	}
	return ModuleUnknown, false
}
