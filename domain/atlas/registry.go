package atlas

// DefaultRules returns the six standard refugia analyses. Each rule is a
// literal configuration entry; callers may substitute their own table.
//
// The value codes refer to the WALS chapter codings:
//   - 1A value 1: consonant inventory of 6-14 segments.
//   - 2A value 1: 2-4 vowel qualities.
//   - 18A values 2-6: absence of one or more common consonant classes
//     (3 = no fricatives; 4,5,6 = no nasals; 2,5 = no bilabials).
//   - 131A value 6: restricted numeral system.
func DefaultRules() []FeatureRule {
	return []FeatureRule{
		{FeatureID: "1A", TargetValues: []int{1}, Label: "Small Consonant Inventories (6-14)"},
		{FeatureID: "2A", TargetValues: []int{1}, Label: "Small Vowel Quality Inventories (2-4)"},
		{FeatureID: "18A", TargetValues: []int{3}, Label: "Absence of Fricatives"},
		{FeatureID: "18A", TargetValues: []int{4, 5, 6}, Label: "Absence of Nasals"},
		{FeatureID: "18A", TargetValues: []int{2, 5}, Label: "Absence of Bilabials"},
		{FeatureID: "131A", TargetValues: []int{6}, Label: "Restricted Numeral Systems"},
	}
}
