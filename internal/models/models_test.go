package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionRecord_AddSectionIsIdempotent(t *testing.T) {
	rec := NewCompletionRecord("0x1111111111111111111111111111111111111111", "web3-basics")

	assert.True(t, rec.AddSection("c1", "s2"))
	assert.True(t, rec.AddSection("c1", "s1"))
	assert.False(t, rec.AddSection("c1", "s1"))

	assert.Equal(t, []string{"s1", "s2"}, rec.Chapters["c1"])
	assert.NotContains(t, rec.Chapters, "c2")
}

func TestCompletionRecord_SetChapterDedupes(t *testing.T) {
	rec := NewCompletionRecord("0x1111111111111111111111111111111111111111", "web3-basics")
	rec.AddSection("c1", "stale")

	rec.SetChapter("c1", []string{"b", "a", "b"})

	assert.Equal(t, []string{"a", "b"}, rec.Chapters["c1"])
}

func TestCompletionRecord_CloneIsDeep(t *testing.T) {
	rec := NewCompletionRecord("0x1111111111111111111111111111111111111111", "solidity")
	rec.AddSection("c1", "s1")
	rec.ChapterPoints = map[string]int{"c1": 10}

	clone := rec.Clone()
	clone.AddSection("c1", "s2")
	clone.ChapterPoints["c1"] = 30

	assert.Equal(t, []string{"s1"}, rec.Chapters["c1"])
	assert.Equal(t, 10, rec.ChapterPoints["c1"])
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	tests := []struct {
		name    string
		req     CompleteSectionRequest
		message string
	}{
		{
			name:    "missing address",
			req:     CompleteSectionRequest{ModuleID: "m", ChapterID: "c", SectionID: "s"},
			message: "validation error: userAddress is required",
		},
		{
			name:    "bad address",
			req:     CompleteSectionRequest{UserAddress: "alice", ModuleID: "m", ChapterID: "c", SectionID: "s"},
			message: "validation error: userAddress must be a hex wallet address",
		},
		{
			name:    "missing section",
			req:     CompleteSectionRequest{UserAddress: "0x1111111111111111111111111111111111111111", ModuleID: "m", ChapterID: "c"},
			message: "validation error: sectionId is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestReviewRequest_RejectsUnknownAction(t *testing.T) {
	req := ReviewRequest{Action: "MAYBE"}
	err := req.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	req.Action = ReviewAccepted
	assert.NoError(t, req.Validate())
}

func TestNormalizeAddress(t *testing.T) {
	lower := "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"
	upper := "0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD"

	a, err := NormalizeAddress(lower)
	require.NoError(t, err)
	b, err := NormalizeAddress(upper)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = NormalizeAddress("not-an-address")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NormalizeAddress("  ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApiClient_HasPermission(t *testing.T) {
	client := &ApiClient{IsActive: true, Permissions: []string{"submissions:*"}}
	assert.True(t, client.HasPermission(PermissionSubmissionsReview))
	assert.False(t, client.HasPermission("claims:write"))

	client.Permissions = []string{"*"}
	assert.True(t, client.HasPermission("claims:write"))

	client.IsActive = false
	assert.False(t, client.HasPermission("claims:write"))

	var nilClient *ApiClient
	assert.False(t, nilClient.HasPermission("claims:write"))
}
