// AngelaMos | 2026
// gate.go

// Package access decides whether a viewer may see or change content.
// Every function here is pure: the caller loads the viewer from the
// entitlement store and passes it in.
package access

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

func (t Tier) Valid() bool {
	return t == TierFree || t == TierPremium
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Viewer is the stored state of the caller. A nil *Viewer is anonymous.
type Viewer struct {
	UserID   string
	Premium  bool
	Elevated bool
}

// Gated is any content item carrying an access tier.
type Gated interface {
	AccessTier() Tier
}

// CanAccess reports whether the viewer may read the full body of item.
func CanAccess(item Gated, viewer *Viewer) bool {
	if item.AccessTier() != TierPremium {
		return true
	}
	return viewer != nil && (viewer.Premium || viewer.Elevated)
}

func CanModify(ownerID string, viewer *Viewer) bool {
	if viewer == nil {
		return false
	}
	return viewer.Elevated || (ownerID != "" && viewer.UserID == ownerID)
}

func CanView(visibility Visibility, ownerID string, viewer *Viewer) bool {
	if visibility != VisibilityPrivate {
		return true
	}
	return CanModify(ownerID, viewer)
}
