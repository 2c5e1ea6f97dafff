package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshRecordLive(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		rec  RefreshRecord
		want bool
	}{
		{"fresh", RefreshRecord{ExpiresAt: now.Add(time.Minute)}, true},
		{"revoked", RefreshRecord{Revoked: true, ExpiresAt: now.Add(time.Minute)}, false},
		{"expired", RefreshRecord{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires now", RefreshRecord{ExpiresAt: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Live(now))
		})
	}
}

func TestEnums(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("OWNER"))
	assert.True(t, ValidKind(KindArticle))
	assert.False(t, ValidKind("video"))
	assert.True(t, ValidStatus(StatusInProgress))
	assert.False(t, ValidStatus("done"))
}
