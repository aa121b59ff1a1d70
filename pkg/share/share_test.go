package share

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

func intPtr(v int) *int { return &v }

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(token), 64)
		assert.False(t, seen[token], "token generated twice")
		seen[token] = true
	}
}

func TestCheckLink(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		link    models.ShareLink
		wantErr error
	}{
		{
			name: "no expiry no quota",
			link: models.ShareLink{Active: true},
		},
		{
			name: "future expiry",
			link: models.ShareLink{Active: true, ExpiresAt: &future},
		},
		{
			name:    "expired",
			link:    models.ShareLink{Active: true, ExpiresAt: &past},
			wantErr: ErrExpired,
		},
		{
			name: "under quota",
			link: models.ShareLink{Active: true, AccessCount: 4, MaxAccesses: intPtr(5)},
		},
		{
			name:    "quota reached",
			link:    models.ShareLink{Active: true, AccessCount: 5, MaxAccesses: intPtr(5)},
			wantErr: ErrQuotaExceeded,
		},
		{
			name:    "expired takes precedence over quota",
			link:    models.ShareLink{Active: true, ExpiresAt: &past, AccessCount: 5, MaxAccesses: intPtr(5)},
			wantErr: ErrExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLink(tt.link, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllows(t *testing.T) {
	link := models.ShareLink{
		CanViewData:    true,
		CanViewCurrent: false,
		CanViewHistory: true,
		CanDownload:    false,
	}

	assert.True(t, Allows(link, CapViewData))
	assert.False(t, Allows(link, CapViewCurrent))
	assert.True(t, Allows(link, CapViewHistory))
	assert.False(t, Allows(link, CapDownload))
}

func TestAuthorize(t *testing.T) {
	svc := &Service{}
	link := models.ShareLink{CanViewCurrent: true}

	assert.NoError(t, svc.Authorize(link, CapViewCurrent))
	assert.ErrorIs(t, svc.Authorize(link, CapDownload), ErrCapabilityDenied)
}
