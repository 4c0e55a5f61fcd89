package catalogs

import (
	"fmt"

	"github.com/statglass/ibsrecon/pkg/recon"
)

// CBSDims defines a unique cell in the consolidated banking statistics.
var CBSDims = []string{
	"MEASURE", "REP_COUNTRY", "BANK_TYPE", "REPORTING_BASIS",
	"POSITION", "INSTRUMENT", "REMAINING_MATURITY",
	"CP_CURRENCY", "CP_SECTOR", "CP_COUNTRY",
}

// CBSCrossDims joins cross-basis checks on the dimensions common to the
// immediate and guarantor views; REPORTING_BASIS is what the rules compare,
// so it is excluded from the key.
var CBSCrossDims = dimsWithout(CBSDims, "REPORTING_BASIS")

func init() {
	recon.RegisterCatalog(recon.Catalog{
		ID:          "cbsi",
		Name:        "CBS immediate counterparty",
		Description: "Internal consistency of the CBS immediate-counterparty report",
		Kind:        recon.KindInternal,
		Rules:       func() []recon.Rule { return cbsInternalRules(BasisImmediate, "CBS_CC") },
	})
	recon.RegisterCatalog(recon.Catalog{
		ID:          "cbsg",
		Name:        "CBS guarantor basis",
		Description: "Internal consistency of the CBS guarantor-basis report",
		Kind:        recon.KindInternal,
		Rules:       func() []recon.Rule { return cbsInternalRules(BasisGuarantor, "CBSG_CC") },
	})
	recon.RegisterCatalog(recon.Catalog{
		ID:          "cbs_cross",
		Name:        "CBS immediate vs guarantor",
		Description: "Consistency between the immediate and guarantor views",
		Kind:        recon.KindCross,
		Rules:       cbsCrossRules,
	})
}

// cbsStandardCell is the filter prefix shared by most internal rules: a
// single reporting basis at total instrument, total maturity, all
// currencies.
func cbsStandardCell(basis Basis) recon.Expr {
	return recon.And(
		recon.Eq("REPORTING_BASIS", string(basis)),
		recon.Eq("POSITION", string(PosInternational)),
		recon.Eq("INSTRUMENT", string(InstrAll)),
		recon.Eq("REMAINING_MATURITY", string(MaturityAll)),
		recon.Eq("CP_CURRENCY", CcyAllCurrencies),
	)
}

// cbsInternalRules generates the standard aggregation rules (sector,
// maturity, identity and inequality sections) for one reporting basis.
func cbsInternalRules(basis Basis, prefix string) []recon.Rule {
	return []recon.Rule{
		// Sector breakdown aggregations.
		{
			ID: prefix + "01",
			Description: fmt.Sprintf(
				"(%s) Non-financial private sector (S) = Non-fin corps (C) + Households (H) + Unallocated (L)", basis),
			LHS: recon.Where(recon.And(
				cbsStandardCell(basis),
				recon.Eq("CP_SECTOR", string(SectorNonFinPrivate)),
			)),
			RHS: recon.Where(recon.And(
				cbsStandardCell(basis),
				recon.In("CP_SECTOR", codes(SectorCorporate, SectorHouseholds, SectorUnallocPriv)...),
			)),
			Dims:      dimsWithout(CBSDims, "CP_SECTOR"),
			Op:        recon.OpEq,
			Tolerance: 3.0,
		},
		{
			ID: prefix + "02",
			Description: fmt.Sprintf(
				"(%s) Non-bank private sector (R) = Non-bank financial (F) + Non-financial private (S)", basis),
			LHS: recon.Where(recon.And(
				cbsStandardCell(basis),
				recon.Eq("CP_SECTOR", string(SectorNonBankPriv)),
			)),
			RHS: recon.Where(recon.And(
				cbsStandardCell(basis),
				recon.In("CP_SECTOR", codes(SectorFinancial, SectorNonFinPrivate)...),
			)),
			Dims:      dimsWithout(CBSDims, "CP_SECTOR"),
			Op:        recon.OpEq,
			Tolerance: 3.0,
		},
		{
			ID: prefix + "03",
			Description: fmt.Sprintf(
				"(%s) All sectors (A) = Banks (B) + Official (O) + Non-bank private (R) + Unallocated (U)", basis),
			LHS: recon.Where(recon.And(
				cbsStandardCell(basis),
				recon.Eq("CP_SECTOR", string(SectorAll)),
			)),
			RHS: recon.Where(recon.And(
				cbsStandardCell(basis),
				recon.In("CP_SECTOR", codes(SectorBanks, SectorOfficial, SectorNonBankPriv, SectorUnallocated)...),
			)),
			Dims:      dimsWithout(CBSDims, "CP_SECTOR"),
			Op:        recon.OpEq,
			Tolerance: 3.0,
		},

		// Maturity breakdown.
		{
			ID: prefix + "04",
			Description: fmt.Sprintf(
				"(%s) Total maturity (A) = <=1yr (U) + 1-2yr (M) + >2yr (N) + Unallocated (X)", basis),
			LHS: recon.Where(recon.And(
				cbsStandardCell(basis),
				recon.Eq("CP_SECTOR", string(SectorAll)),
			)),
			RHS: recon.Where(recon.And(
				recon.Eq("REPORTING_BASIS", string(basis)),
				recon.Eq("POSITION", string(PosInternational)),
				recon.Eq("INSTRUMENT", string(InstrAll)),
				recon.In("REMAINING_MATURITY",
					codes(MaturityUpToOneYear, MaturityOneToTwo, MaturityOverTwo, MaturityUnallocated)...),
				recon.Eq("CP_CURRENCY", CcyAllCurrencies),
				recon.Eq("CP_SECTOR", string(SectorAll)),
			)),
			Dims:      dimsWithout(CBSDims, "REMAINING_MATURITY"),
			Op:        recon.OpEq,
			Tolerance: 4.0,
		},

		// Identities.
		{
			ID: prefix + "09",
			Description: fmt.Sprintf(
				"(%s) Total claims (C) = International claims (I) + Local claims local currency (B)", basis),
			LHS: recon.Where(recon.And(
				recon.Eq("REPORTING_BASIS", string(basis)),
				recon.Eq("POSITION", string(PosClaims)),
				recon.Eq("INSTRUMENT", string(InstrAll)),
				recon.Eq("REMAINING_MATURITY", string(MaturityAll)),
				recon.Eq("CP_CURRENCY", CcyAllCurrencies),
				recon.Eq("CP_SECTOR", string(SectorAll)),
			)),
			RHS: recon.Where(recon.And(
				recon.Eq("REPORTING_BASIS", string(basis)),
				recon.Or(
					recon.And(recon.Eq("POSITION", string(PosInternational)), recon.Eq("CP_CURRENCY", CcyAllCurrencies)),
					recon.And(recon.Eq("POSITION", string(PosLocalLocalCcy)), recon.Eq("CP_CURRENCY", CcyLocal)),
				),
				recon.Eq("INSTRUMENT", string(InstrAll)),
				recon.Eq("REMAINING_MATURITY", string(MaturityAll)),
				recon.Eq("CP_SECTOR", string(SectorAll)),
			)),
			Dims:      dimsWithout(CBSDims, "POSITION", "CP_CURRENCY"),
			Op:        recon.OpEq,
			Tolerance: 5.0,
		},

		// Inequalities.
		{
			ID:          prefix + "11",
			Description: fmt.Sprintf("(%s) Total claims (C) <= Total assets (F)", basis),
			LHS: recon.Where(recon.And(
				recon.Eq("REPORTING_BASIS", string(basis)),
				recon.Eq("POSITION", string(PosClaims)),
				recon.Eq("INSTRUMENT", string(InstrAll)),
				recon.Eq("REMAINING_MATURITY", string(MaturityAll)),
				recon.Eq("CP_CURRENCY", CcyAllCurrencies),
				recon.Eq("CP_SECTOR", string(SectorAll)),
				recon.Eq("CP_COUNTRY", AreaAllCountries),
			)),
			RHS: recon.Where(recon.And(
				recon.Eq("REPORTING_BASIS", string(basis)),
				recon.Eq("POSITION", string(PosTotalAssets)),
				recon.Eq("INSTRUMENT", string(InstrAll)),
				recon.Eq("REMAINING_MATURITY", string(MaturityAll)),
				recon.Eq("CP_CURRENCY", CcyAllCurrencies),
				recon.Eq("CP_SECTOR", string(SectorAll)),
				recon.Eq("CP_COUNTRY", AreaAllCountries),
			)),
			Dims:      dimsWithout(CBSDims, "POSITION"),
			Op:        recon.OpLte,
			Tolerance: 2.0,
		},
	}
}

func cbsCrossRules() []recon.Rule {
	return []recon.Rule{
		{
			ID:          "CBS_CROSS_01",
			Description: "Total assets (immediate) = Total assets (guarantor)",
			// Total assets are generally invariant to risk transfer unless
			// the consolidation scope differs.
			LHS: recon.Where(recon.And(
				recon.Eq("REPORTING_BASIS", string(BasisImmediate)),
				recon.Eq("POSITION", string(PosTotalAssets)),
				recon.Eq("INSTRUMENT", string(InstrAll)),
				recon.Eq("CP_SECTOR", string(SectorAll)),
			)),
			RHS: recon.Where(recon.And(
				recon.Eq("REPORTING_BASIS", string(BasisGuarantor)),
				recon.Eq("POSITION", string(PosTotalAssets)),
				recon.Eq("INSTRUMENT", string(InstrAll)),
				recon.Eq("CP_SECTOR", string(SectorAll)),
			)),
			Dims:      CBSCrossDims,
			Op:        recon.OpEq,
			Tolerance: 5.0,
		},
		{
			ID:          "CBS_CROSS_02",
			Description: "Global total claims (guarantor) = Global total claims (immediate)",
			// The exact identity is G = I + inward - outward risk transfer;
			// without the transfer columns the global totals are compared
			// under a wide tolerance.
			LHS: recon.Where(recon.And(
				recon.Eq("REPORTING_BASIS", string(BasisGuarantor)),
				recon.Eq("POSITION", string(PosClaims)),
				recon.Eq("CP_COUNTRY", AreaAllCountries),
			)),
			RHS: recon.Where(recon.And(
				recon.Eq("REPORTING_BASIS", string(BasisImmediate)),
				recon.Eq("POSITION", string(PosClaims)),
				recon.Eq("CP_COUNTRY", AreaAllCountries),
			)),
			Dims:      CBSCrossDims,
			Op:        recon.OpEq,
			Tolerance: 100.0,
		},
	}
}
