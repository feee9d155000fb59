package market

import "strings"

// ConditionUnknown is the sentinel identity condition for quotes whose wear
// could not be determined. It is distinct from every real condition.
const ConditionUnknown = "unknown"

// ItemIdentity is the canonical key for one tradable variant: two quotes with
// equal identities refer to the same item regardless of marketplace. It is a
// comparable value used directly as a grouping key; it carries no surrogate id
// and must never be used as a display label on its own.
type ItemIdentity struct {
	Weapon    string
	Skin      string
	Condition string
	StatTrak  bool
	Souvenir  bool
}

// IdentityFor derives the grouping identity of a quote for the queried
// weapon/skin pair. Weapon and skin names are taken as given (no fuzzy
// matching); the condition is case-folded and whitespace-normalized. A quote
// with no queried weapon or skin cannot be grouped safely and is rejected
// rather than merged with unrelated items.
func IdentityFor(q Quote, weapon, skin string) (ItemIdentity, bool) {
	if strings.TrimSpace(weapon) == "" || strings.TrimSpace(skin) == "" {
		return ItemIdentity{}, false
	}
	return ItemIdentity{
		Weapon:    weapon,
		Skin:      skin,
		Condition: NormalizeCondition(q.Condition),
		StatTrak:  q.StatTrak,
		Souvenir:  q.Souvenir,
	}, true
}

// NormalizeCondition canonicalizes wear text ("Factory New" -> "factory_new").
// Missing text maps to ConditionUnknown.
func NormalizeCondition(condition string) string {
	c := strings.ToLower(strings.TrimSpace(condition))
	if c == "" {
		return ConditionUnknown
	}
	return strings.Join(strings.Fields(c), "_")
}
