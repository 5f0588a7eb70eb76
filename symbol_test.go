package sidekick

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateISIN(t *testing.T) {
	tests := []struct {
		isin    string
		wantErr bool
	}{
		{"US0378331005", false},
		{"IE00B3RBWM25", false},
		{"NL0011794037", false},
		{"US0378331006", true},
		{"US037833100", true},
		{"us0378331005", true},
		{"IE00B3XXRP08", true},
	}
	for _, tt := range tests {
		t.Run(tt.isin, func(t *testing.T) {
			if err := ValidateISIN(tt.isin); (err != nil) != tt.wantErr {
				t.Errorf("ValidateISIN(%q) error = %v, wantErr %v", tt.isin, err, tt.wantErr)
			}
		})
	}
}

func TestParseAssetClass(t *testing.T) {
	c, err := ParseAssetClass("equity")
	assert.NoError(t, err)
	assert.Equal(t, Equity, c)

	c, err = ParseAssetClass("")
	assert.NoError(t, err)
	assert.Equal(t, AssetClassNone, c)

	_, err = ParseAssetClass("SHARES")
	assert.Error(t, err)

	sub, err := ParseAssetSubClass("Precious_Metal")
	assert.NoError(t, err)
	assert.Equal(t, PreciousMetal, sub)

	_, err = ParseAssetSubClass("GOLD")
	assert.Error(t, err)
}

func TestSymbolProfile_AddIdentifier(t *testing.T) {
	p := SymbolProfile{Symbol: "VWRL.AS", ISIN: "IE00B3RBWM25"}

	q := p.AddIdentifier("VWRL").AddIdentifier("Vanguard FTSE All-World")
	assert.Empty(t, p.Identifiers, "profiles are values")
	assert.Equal(t, "Known Identifiers: [VWRL,Vanguard FTSE All-World]", q.Comment)
	assert.Equal(t, q.Identifiers, ParseIdentifiers(q.Comment))

	assert.True(t, q.HasIdentifier("VWRL"))
	assert.True(t, q.HasIdentifier("IE00B3RBWM25"))
	assert.False(t, q.HasIdentifier(""))

	assert.Equal(t, q, q.AddIdentifier("VWRL"), "adding a known identifier is a no-op")
	assert.Nil(t, ParseIdentifiers("no identifiers here"))
}
