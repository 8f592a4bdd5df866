package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageRequestNormalize(t *testing.T) {
	cases := []struct {
		name     string
		in       PageRequest
		wantNum  int
		wantSize int
	}{
		{"zero value gets defaults", PageRequest{}, 1, DefaultPageSize},
		{"negative page clamps to first", PageRequest{PageNumber: -3, PageSize: 10}, 1, 10},
		{"oversized page clamps to max", PageRequest{PageNumber: 2, PageSize: 10_000}, 2, MaxPageSize},
		{"valid passes through", PageRequest{PageNumber: 4, PageSize: 25}, 4, 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			require.Equal(t, tc.wantNum, got.PageNumber)
			require.Equal(t, tc.wantSize, got.PageSize)
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	page := PageRequest{PageNumber: 3, PageSize: 20}.Normalize()
	require.Equal(t, 40, page.Offset())
}

func TestNewPagedResultEchoesPage(t *testing.T) {
	page := PageRequest{PageNumber: 2, PageSize: 10}
	result := NewPagedResult([]string{"a", "b"}, 12, page)
	require.Equal(t, int64(12), result.TotalCount)
	require.Equal(t, 2, result.PageNumber)
	require.Equal(t, 10, result.PageSize)
	require.Len(t, result.Items, 2)
}

func TestAuditableStamps(t *testing.T) {
	var a Auditable
	a.StampCreate("alice")
	require.Equal(t, "alice", a.CreatedBy)
	require.Equal(t, int64(1), a.Version)
	require.False(t, a.IsDeleted)

	stamp := a.RowStamp
	a.StampUpdate("bob")
	require.Equal(t, "bob", a.UpdatedBy)
	require.Equal(t, int64(2), a.Version)
	require.NotEqual(t, stamp, a.RowStamp)

	a.StampDelete("carol")
	require.True(t, a.IsDeleted)
	require.Equal(t, "carol", a.DeletedBy)
	require.NotNil(t, a.DeletedAt)
}
