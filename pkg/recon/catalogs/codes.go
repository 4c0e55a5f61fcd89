// Package catalogs registers the built-in reconciliation rule catalogs for
// the locational (LBS) and consolidated (CBS) banking statistics. Catalogs
// are pure configuration: declarative filters, grouping dimensions,
// operators and tolerances. Import for side effects:
//
//	import _ "github.com/statglass/ibsrecon/pkg/recon/catalogs"
package catalogs

// The statistical code lists are modeled as typed constants per dimension
// axis so a mistyped code is a compile error in the catalog instead of a
// silently empty selection at run time.

// Position identifies the reported position type.
type Position string

const (
	PosClaims        Position = "C" // total claims
	PosLiabilities   Position = "L"
	PosInternational Position = "I" // international claims
	PosLocalLocalCcy Position = "B" // local claims in local currency
	PosTotalAssets   Position = "F"
)

// Instrument identifies the financial instrument axis.
type Instrument string

const (
	InstrAll         Instrument = "A"
	InstrDebt        Instrument = "D"
	InstrLoansDep    Instrument = "G"
	InstrOther       Instrument = "I"
	InstrDerivatives Instrument = "V"
	InstrResidual    Instrument = "K"
	InstrMemo        Instrument = "M"
)

// Sector identifies the counterparty sector axis. The LBS and CBS code
// lists overlap but are not identical; both live here.
type Sector string

const (
	SectorAll           Sector = "A"
	SectorBanks         Sector = "B"
	SectorNonBanks      Sector = "N"
	SectorUnallocated   Sector = "U"
	SectorRelatedBanks  Sector = "I"
	SectorCentralBank   Sector = "M"
	SectorUnrelated     Sector = "J"
	SectorFinancial     Sector = "F"
	SectorNonFinancial  Sector = "P"
	SectorCorporate     Sector = "C"
	SectorGovernment    Sector = "G"
	SectorHouseholds    Sector = "H"
	SectorOfficial      Sector = "O"
	SectorNonBankPriv   Sector = "R"
	SectorNonFinPrivate Sector = "S"
	SectorUnallocPriv   Sector = "L"
)

// Maturity identifies the remaining-maturity axis (CBS).
type Maturity string

const (
	MaturityAll         Maturity = "A"
	MaturityUpToOneYear Maturity = "U"
	MaturityOneToTwo    Maturity = "M"
	MaturityOverTwo     Maturity = "N"
	MaturityUnallocated Maturity = "X"
)

// CurrencyType distinguishes domestic from foreign denominations (LBS).
type CurrencyType string

const (
	CurrTypeAll      CurrencyType = "A"
	CurrTypeDomestic CurrencyType = "D"
	CurrTypeForeign  CurrencyType = "F"
)

// BankType identifies the reporting-bank ownership axis (LBS).
type BankType string

const (
	BankTypeAll      BankType = "A"
	BankTypeDomestic BankType = "D"
	BankTypeBranches BankType = "B"
	BankTypeSubs     BankType = "S"
)

// Basis identifies the CBS reporting basis.
type Basis string

const (
	BasisImmediate Basis = "F"
	BasisGuarantor Basis = "G"
)

// Aggregate area and currency codes shared across catalogs.
const (
	AreaAllCountries  = "5J" // grand total across counterparty countries
	AreaNonResidents  = "5Z"
	AreaUnallocated   = "5M"
	AreaBISParents    = "5L"
	AreaNonBISParents = "5X"
	AreaConsortium    = "1G"

	CcyAllCurrencies   = "TO1"
	CcyOtherCurrencies = "TO3"
	CcyLocal           = "LC1"
)

// codes flattens typed code constants into the string slices the filter
// constructors take.
func codes[T ~string](vals ...T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// dimsWithout copies a dimension list minus the named dimensions. Rules
// exclude the axis they compare across from the grouping key.
func dimsWithout(dims []string, excluded ...string) []string {
	skip := make(map[string]struct{}, len(excluded))
	for _, e := range excluded {
		skip[e] = struct{}{}
	}
	out := make([]string, 0, len(dims))
	for _, d := range dims {
		if _, ok := skip[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}
