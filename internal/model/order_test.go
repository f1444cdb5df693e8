package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderAcceptsSelections(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name    string
		status  string
		expires *time.Time
		want    bool
	}{
		{"open before expiry", StatusOpen, &future, true},
		{"open without expiry", StatusOpen, nil, true},
		{"open past expiry", StatusOpen, &past, false},
		{"closed before expiry", StatusClosed, &future, false},
		{"closed without expiry", StatusClosed, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := &Order{Status: tc.status, ExpiresAt: tc.expires}
			assert.Equal(t, tc.want, o.AcceptsSelections(now))
		})
	}
}

func TestOrderIsExpiredIgnoresStatus(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	o := &Order{Status: StatusClosed, ExpiresAt: &past}
	assert.True(t, o.IsExpired(now))
	// Checking expiry never touches the stored status.
	assert.Equal(t, StatusClosed, o.Status)

	o = &Order{Status: StatusOpen}
	assert.False(t, o.IsExpired(now))
}
