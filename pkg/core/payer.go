package core

import "strings"

// PayerCategory identifies who pays for a resident day or a revenue line.
type PayerCategory string

// Payer categories. The set is closed; anything else is ignored by the resolver.
const (
	PayerMedicareA         PayerCategory = "MEDICARE_A"
	PayerMedicareAdvantage PayerCategory = "MEDICARE_ADVANTAGE"
	PayerManagedCare       PayerCategory = "MANAGED_CARE"
	PayerCommercial        PayerCategory = "COMMERCIAL"
	PayerVA                PayerCategory = "VA"
	PayerMedicaid          PayerCategory = "MEDICAID"
	PayerManagedMedicaid   PayerCategory = "MANAGED_MEDICAID"
	PayerPrivatePay        PayerCategory = "PRIVATE_PAY"
	PayerHospice           PayerCategory = "HOSPICE"
	PayerISNP              PayerCategory = "ISNP"
	PayerOther             PayerCategory = "OTHER"
)

// AllPayers lists every payer category in canonical order.
var AllPayers = []PayerCategory{
	PayerMedicareA,
	PayerMedicareAdvantage,
	PayerManagedCare,
	PayerCommercial,
	PayerVA,
	PayerMedicaid,
	PayerManagedMedicaid,
	PayerPrivatePay,
	PayerHospice,
	PayerISNP,
	PayerOther,
}

// SkilledPayers is the business-rule set of payers whose days count as
// skilled days. It is not derived from census flags.
var SkilledPayers = []PayerCategory{
	PayerMedicareA,
	PayerMedicareAdvantage,
	PayerCommercial,
	PayerVA,
	PayerISNP,
}

// IsValid reports whether p is one of the known payer categories.
func (p PayerCategory) IsValid() bool {
	for _, known := range AllPayers {
		if p == known {
			return true
		}
	}
	return false
}

// IsSkilled reports whether p belongs to SkilledPayers.
func (p PayerCategory) IsSkilled() bool {
	for _, s := range SkilledPayers {
		if p == s {
			return true
		}
	}
	return false
}

// ParsePayerCategory normalizes s (case, spaces, dashes) to a PayerCategory.
// Returns false for unknown categories.
func ParsePayerCategory(s string) (PayerCategory, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	p := PayerCategory(norm)
	return p, p.IsValid()
}
