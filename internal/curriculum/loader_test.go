package curriculum

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefault(t *testing.T) {
	reg, err := LoadDefault()
	require.NoError(t, err)

	modules := reg.Modules()
	require.Len(t, modules, 4)
	assert.Equal(t, ModuleWeb3Basics, modules[0].ID)

	solidity, ok := reg.Lookup(ModuleSolidity)
	require.True(t, ok)
	assert.Equal(t, ScoringByLevel, solidity.Scoring)
	assert.Equal(t, ClaimRecord, solidity.ClaimMode)

	gas := solidity.Chapter("gas-optimization")
	require.NotNil(t, gas)
	assert.Equal(t, LevelAdvanced, gas.Level)
	assert.Equal(t, []string{"storage-layout", "calldata-vs-memory"}, gas.AvailableSectionIDs())

	defi, ok := reg.LookupKey("defi")
	require.True(t, ok)
	assert.Equal(t, ClaimLedger, defi.ClaimMode)

	tiers := reg.Tiers()
	require.Len(t, tiers, 4)
	assert.Equal(t, "explorer", tiers[0].LevelKey)
	assert.True(t, reg.HasChallenge("gas-golf"))
	assert.False(t, reg.HasChallenge("hello-world"))
	assert.Len(t, reg.ChallengeIDs(), 7)
}

func TestResolveFallsBackToDefault(t *testing.T) {
	reg, err := LoadDefault()
	require.NoError(t, err)

	mod, ok := reg.Resolve("no-such-module")
	assert.False(t, ok)
	assert.Equal(t, DefaultModule, mod.ID)

	mod, ok = reg.Resolve("defi")
	assert.True(t, ok)
	assert.Equal(t, ModuleDeFi, mod.ID)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `
modules:
  - id: web3-basics
    chapters:
      - id: c1
        sections:
          - id: s1
          - id: s2
          - id: s3
            status: locked
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	reg, err := LoadFromFile(path)
	require.NoError(t, err)

	mod, ok := reg.Lookup(ModuleWeb3Basics)
	require.True(t, ok)
	assert.Equal(t, "web3-basics", mod.Title)
	require.Len(t, mod.Chapters, 1)
	assert.Equal(t, LevelBeginner, mod.Chapters[0].Level)
	assert.Equal(t, SectionAvailable, mod.Chapters[0].Sections[0].Status)
	assert.Equal(t, []string{"s1", "s2"}, mod.Chapters[0].AvailableSectionIDs())

	_, ok = reg.Lookup(ModuleSolidity)
	assert.False(t, ok)
	assert.Empty(t, reg.Tiers())
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown module",
			doc:  "modules:\n  - id: web3-basics\n  - id: rust\n",
		},
		{
			name: "missing default module",
			doc:  "modules:\n  - id: solidity\n",
		},
		{
			name: "duplicate chapter",
			doc:  "modules:\n  - id: web3-basics\n    chapters:\n      - id: c1\n      - id: c1\n",
		},
		{
			name: "duplicate section",
			doc:  "modules:\n  - id: web3-basics\n    chapters:\n      - id: c1\n        sections:\n          - id: s1\n          - id: s1\n",
		},
		{
			name: "bad level",
			doc:  "modules:\n  - id: web3-basics\n    chapters:\n      - id: c1\n        level: Expert\n",
		},
		{
			name: "duplicate tier",
			doc:  "modules:\n  - id: web3-basics\ncertifications:\n  - level_key: a\n    required_challenges: [x]\n  - level_key: a\n    required_challenges: [y]\n",
		},
		{
			name: "tier without challenges",
			doc:  "modules:\n  - id: web3-basics\ncertifications:\n  - level_key: a\n",
		},
		{
			name: "malformed yaml",
			doc:  "modules: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestModuleIDText(t *testing.T) {
	for _, id := range moduleOrder {
		parsed, ok := ParseModuleID(id.String())
		require.True(t, ok)
		assert.Equal(t, id, parsed)
	}

	data, err := json.Marshal(struct {
		ID ModuleID `json:"id"`
	}{ID: ModuleDeFi})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"defi"}`, string(data))

	var decoded struct {
		ID ModuleID `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"advocate"}`), &decoded))
	assert.Equal(t, ModuleAdvocate, decoded.ID)
	assert.Error(t, json.Unmarshal([]byte(`{"id":"cobol"}`), &decoded))

	_, ok := ParseModuleID("unknown")
	assert.False(t, ok)
}
