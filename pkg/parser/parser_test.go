package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    *SwapRequest
		wantErr bool
	}{
		{
			name:    "with to keyword",
			command: "1 ETH to USDC",
			want:    &SwapRequest{Amount: "1", SourceSymbol: "ETH", ToSymbol: "USDC"},
		},
		{
			name:    "without keyword",
			command: "0.5 eth usdc",
			want:    &SwapRequest{Amount: "0.5", SourceSymbol: "ETH", ToSymbol: "USDC"},
		},
		{
			name:    "for keyword",
			command: "100 USDC for WBTC",
			want:    &SwapRequest{Amount: "100", SourceSymbol: "USDC", ToSymbol: "WBTC"},
		},
		{name: "missing token", command: "1 ETH", wantErr: true},
		{name: "too many words", command: "1 ETH to USDC now", wantErr: true},
		{name: "bad amount", command: "abc ETH to USDC", wantErr: true},
		{name: "zero amount", command: "0 ETH to USDC", wantErr: true},
		{name: "negative amount", command: "-1 ETH to USDC", wantErr: true},
		{name: "empty", command: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSwapCommand(tt.command)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
