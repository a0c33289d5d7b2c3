package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in, want Page
		skip     int64
	}{
		{Page{}, Page{Page: 1, Limit: 10}, 0},
		{Page{Page: -3, Limit: 0}, Page{Page: 1, Limit: 10}, 0},
		{Page{Page: 2, Limit: 20}, Page{Page: 2, Limit: 20}, 20},
		{Page{Page: 3, Limit: 500}, Page{Page: 3, Limit: 10}, 20},
	}
	for _, tt := range tests {
		got := tt.in.Normalize()
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.skip, got.Skip())
	}
}
