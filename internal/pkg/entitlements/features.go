package entitlements

import "sort"

// Feature identifies a gated capability of the streaming tool.
type Feature string

const (
	FeatureChatWidget       Feature = "chat_widget"
	FeatureBasicOverlays    Feature = "basic_overlays"
	FeatureCustomOverlays   Feature = "custom_overlays"
	FeatureEmoteSync        Feature = "emote_sync"
	FeatureAlertAnimations  Feature = "alert_animations"
	FeatureSceneScheduler   Feature = "scene_scheduler"
	FeatureCloudSceneBackup Feature = "cloud_scene_backup"
)

// featureTiers lists features with a non-default requirement. Anything not
// listed requires Pro.
var featureTiers = map[Feature]Tier{
	FeatureChatWidget:       TierFree,
	FeatureBasicOverlays:    TierFree,
	FeatureCustomOverlays:   TierPro,
	FeatureEmoteSync:        TierPro,
	FeatureAlertAnimations:  TierPro,
	FeatureSceneScheduler:   TierPro,
	FeatureCloudSceneBackup: TierPro,
}

// AccessDecision is the result of a feature gate check.
type AccessDecision struct {
	HasAccess    bool `json:"has_access"`
	RequiredTier Tier `json:"required_tier"`
}

// RequiredTier returns the tier a feature demands, defaulting to Pro for
// unlisted features so new capabilities fail closed.
func RequiredTier(feature Feature) Tier {
	if tier, ok := featureTiers[feature]; ok {
		return tier
	}
	return TierPro
}

// CanAccess decides whether an entitlement grants a feature. Free features
// are always accessible, even to inactive entitlements; everything else
// needs an active entitlement of at least the required tier.
func CanAccess(feature Feature, ent Entitlement) AccessDecision {
	required := RequiredTier(feature)
	if required == TierFree {
		return AccessDecision{HasAccess: true, RequiredTier: required}
	}
	granted := ent.IsActive && TierRank(ent.Tier) >= TierRank(required)
	return AccessDecision{HasAccess: granted, RequiredTier: required}
}

// Features returns all known features in stable order, for the read API.
func Features() []Feature {
	features := make([]Feature, 0, len(featureTiers))
	for feature := range featureTiers {
		features = append(features, feature)
	}
	sort.Slice(features, func(i, j int) bool { return features[i] < features[j] })
	return features
}
