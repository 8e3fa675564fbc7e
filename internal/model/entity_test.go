package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityKindValid(t *testing.T) {
	assert.True(t, KindPerson.Valid())
	assert.True(t, KindOrganization.Valid())
	assert.True(t, KindCompensation.Valid())
	assert.False(t, EntityKind("department").Valid())
	assert.False(t, EntityKind("").Valid())
}

func TestEntityRefValidate(t *testing.T) {
	tests := []struct {
		name    string
		ref     EntityRef
		wantErr bool
	}{
		{"valid person", EntityRef{Kind: KindPerson, ID: 1}, false},
		{"valid organization", EntityRef{Kind: KindOrganization, ID: 99}, false},
		{"unknown kind", EntityRef{Kind: "widget", ID: 1}, true},
		{"zero id", EntityRef{Kind: KindPerson, ID: 0}, true},
		{"negative id", EntityRef{Kind: KindPerson, ID: -5}, true},
		{"empty", EntityRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEntityRefString(t *testing.T) {
	assert.Equal(t, "person/7", EntityRef{Kind: KindPerson, ID: 7}.String())
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, ContactEmail.Valid())
	assert.True(t, ContactAddress.Valid())
	assert.False(t, ContactType("pager").Valid())

	assert.True(t, PlatformLinkedIn.Valid())
	assert.True(t, PlatformBluesky.Valid())
	assert.False(t, Platform("myspace").Valid())

	assert.True(t, SourceWebScrape.Valid())
	assert.True(t, SourceDerived.Valid())
	assert.False(t, SourceType("telepathy").Valid())

	assert.True(t, ConfidenceUnknown.Valid())
	assert.False(t, ConfidenceLevel("certain").Valid())
}

func TestRowID(t *testing.T) {
	tests := []struct {
		name   string
		row    Row
		want   int64
		wantOK bool
	}{
		{"int64", Row{"id": int64(7)}, 7, true},
		{"int", Row{"id": 7}, 7, true},
		{"int32", Row{"id": int32(7)}, 7, true},
		{"missing", Row{}, 0, false},
		{"wrong type", Row{"id": "7"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ID(tt.row)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
