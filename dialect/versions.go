package dialect

import "github.com/schemagraph/jsonschema/internal/keywords"

// Standard metaschema URIs for the two named dialects this package
// ships out of the box, matching the IDs the respective drafts declare
// for their own meta-schemas.
const (
	URI202012 = "https://json-schema.org/draft/2020-12/schema"
	URIDraft07 = "http://json-schema.org/draft-07/schema#"
)

// New202012 returns the Draft 2020-12 dialect: the full keyword
// vocabulary internal/keywords implements, registered under the
// draft's canonical $schema URI with "$id" as the identifier field.
// Grounded on kaptinlin/jsonschema's hardcoded Draft 2020-12 behavior,
// generalized into one named, registrable Dialect value instead of the
// compiler's only behavior.
func New202012() Dialect {
	return Dialect{
		Primary:         URI202012,
		MetaschemaURIs:  []string{URI202012},
		IdentifierField: "$id",
		Keywords:        keywords.Descriptors(),
	}
}

// Draft07 returns the Draft-07 dialect: internal/keywords.Descriptors07,
// registered under the draft's canonical $schema URI with "$id" as the
// identifier field (Draft-07 already uses "$id", unlike Draft-04's
// plain "id"). Supplements spec.md's distilled core with the
// original_source/ material's draft_07.rs dialect variant.
func Draft07() Dialect {
	return Dialect{
		Primary:         URIDraft07,
		MetaschemaURIs:  []string{URIDraft07},
		IdentifierField: "$id",
		Keywords:        keywords.Descriptors07(),
	}
}
