package entitlements

import (
	"sort"
	"testing"
)

func TestCanAccess_FreeFeaturesAlwaysGrant(t *testing.T) {
	inactive := Entitlement{Tier: TierFree, IsActive: false, Source: SourceNone}
	for _, feature := range []Feature{FeatureChatWidget, FeatureBasicOverlays} {
		decision := CanAccess(feature, inactive)
		if !decision.HasAccess {
			t.Fatalf("free feature %q denied to inactive entitlement", feature)
		}
		if decision.RequiredTier != TierFree {
			t.Fatalf("feature %q required tier = %q, want free", feature, decision.RequiredTier)
		}
	}
}

func TestCanAccess_ProFeatures(t *testing.T) {
	pro := Entitlement{Tier: TierPro, IsActive: true, Source: SourceDirect}
	free := Entitlement{Tier: TierFree, IsActive: false, Source: SourceNone}
	// Pro tier without an active entitlement must not grant.
	lapsed := Entitlement{Tier: TierPro, IsActive: false, Source: SourceNone}

	for _, feature := range []Feature{FeatureCustomOverlays, FeatureEmoteSync, FeatureSceneScheduler} {
		if !CanAccess(feature, pro).HasAccess {
			t.Fatalf("pro feature %q denied to active pro entitlement", feature)
		}
		if CanAccess(feature, free).HasAccess {
			t.Fatalf("pro feature %q granted to free entitlement", feature)
		}
		if CanAccess(feature, lapsed).HasAccess {
			t.Fatalf("pro feature %q granted to lapsed entitlement", feature)
		}
	}
}

func TestRequiredTier_UnknownFeatureFailsClosed(t *testing.T) {
	if got := RequiredTier(Feature("holographic_avatars")); got != TierPro {
		t.Fatalf("unknown feature requires %q, want pro", got)
	}
	if CanAccess(Feature("holographic_avatars"), Entitlement{Tier: TierFree}).HasAccess {
		t.Fatalf("unknown feature granted to free entitlement")
	}
}

func TestFeatures_StableOrder(t *testing.T) {
	features := Features()
	if len(features) != len(featureTiers) {
		t.Fatalf("Features() returned %d entries, want %d", len(features), len(featureTiers))
	}
	if !sort.SliceIsSorted(features, func(i, j int) bool { return features[i] < features[j] }) {
		t.Fatalf("Features() not sorted: %v", features)
	}
}
