package model

import "fmt"

// EntityKind tags which table an EntityRef points at. The polymorphic tables
// (contact_info, social_media, data_sources) store this tag next to the row
// id instead of a fixed foreign key.
type EntityKind string

const (
	KindPerson       EntityKind = "person"
	KindOrganization EntityKind = "organization"
	KindCompensation EntityKind = "compensation"
)

// Valid reports whether k is one of the enumerated kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case KindPerson, KindOrganization, KindCompensation:
		return true
	}
	return false
}

// EntityRef is a tagged reference to a row in one of several owning tables.
// The database does not enforce integrity across the tag; callers needing
// strict integrity verify existence inside the same unit of work.
type EntityRef struct {
	Kind EntityKind
	ID   int64
}

// Validate rejects unknown kinds and non-positive ids before they reach SQL.
func (r EntityRef) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("invalid entity kind %q", r.Kind)
	}
	if r.ID <= 0 {
		return fmt.Errorf("invalid entity id %d", r.ID)
	}
	return nil
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// ContactType enumerates contact_info.contact_type.
type ContactType string

const (
	ContactEmail   ContactType = "email"
	ContactPhone   ContactType = "phone"
	ContactMobile  ContactType = "mobile"
	ContactOffice  ContactType = "office"
	ContactFax     ContactType = "fax"
	ContactAddress ContactType = "address"
	ContactOther   ContactType = "other"
)

// Valid reports whether t is an enumerated contact type.
func (t ContactType) Valid() bool {
	switch t {
	case ContactEmail, ContactPhone, ContactMobile, ContactOffice, ContactFax, ContactAddress, ContactOther:
		return true
	}
	return false
}

// Platform enumerates social_media.platform.
type Platform string

const (
	PlatformLinkedIn       Platform = "linkedin"
	PlatformTwitter        Platform = "twitter"
	PlatformX              Platform = "x"
	PlatformInstagram      Platform = "instagram"
	PlatformFacebook       Platform = "facebook"
	PlatformYouTube        Platform = "youtube"
	PlatformGitHub         Platform = "github"
	PlatformGoogleCalendar Platform = "google_calendar"
	PlatformReddit         Platform = "reddit"
	PlatformTikTok         Platform = "tiktok"
	PlatformMastodon       Platform = "mastodon"
	PlatformBluesky        Platform = "bluesky"
	PlatformOther          Platform = "other"
)

// Valid reports whether p is an enumerated platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformLinkedIn, PlatformTwitter, PlatformX, PlatformInstagram,
		PlatformFacebook, PlatformYouTube, PlatformGitHub, PlatformGoogleCalendar,
		PlatformReddit, PlatformTikTok, PlatformMastodon, PlatformBluesky, PlatformOther:
		return true
	}
	return false
}

// SourceType enumerates data_sources.source_type.
type SourceType string

const (
	SourceWebScrape     SourceType = "web_scrape"
	SourceAPI           SourceType = "api"
	SourcePublicRecords SourceType = "public_records"
	SourceManualEntry   SourceType = "manual_entry"
	SourceImport        SourceType = "import"
	SourceDerived       SourceType = "derived"
	SourceOther         SourceType = "other"
)

// Valid reports whether s is an enumerated source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceWebScrape, SourceAPI, SourcePublicRecords, SourceManualEntry, SourceImport, SourceDerived, SourceOther:
		return true
	}
	return false
}

// ConfidenceLevel enumerates data_sources.confidence_level.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "high"
	ConfidenceMedium  ConfidenceLevel = "medium"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceUnknown ConfidenceLevel = "unknown"
)

// Valid reports whether c is an enumerated confidence level.
func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow, ConfidenceUnknown:
		return true
	}
	return false
}
