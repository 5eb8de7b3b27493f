package entity

// BidderKind tags the two shapes a bidder identity can take: a platform user
// pressing the bid button, or a bare display name from the external live chat.
type BidderKind string

const (
	BidderKindPlatformUser BidderKind = "platform_user"
	BidderKindExternalName BidderKind = "external_name"
)

// BidderIdentity unifies both bid sources. Downstream code must only rely on
// DisplayName; ID is present for the platform_user kind only (DM delivery).
type BidderIdentity struct {
	Kind BidderKind
	ID   int64
	Name string
}

func PlatformUser(id int64, name string) BidderIdentity {
	return BidderIdentity{Kind: BidderKindPlatformUser, ID: id, Name: name}
}

func ExternalName(name string) BidderIdentity {
	return BidderIdentity{Kind: BidderKindExternalName, Name: name}
}

func (b BidderIdentity) DisplayName() string {
	return b.Name
}

func (b BidderIdentity) IsZero() bool {
	return b.Kind == ""
}

func (b BidderIdentity) String() string {
	return b.Name
}
