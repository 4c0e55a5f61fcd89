package catalogs

import (
	"github.com/statglass/ibsrecon/pkg/recon"
)

// LBSCrossDims defines the granular cell that must match between the
// residency and nationality reports.
var LBSCrossDims = []string{
	"POSITION", "INSTRUMENT", "DENOM", "CURR_TYPE",
	"REP_CTY", "CP_SECTOR", "CP_COUNTRY",
}

// lbsFullDims is the grouping key for internal breakdown checks; rules drop
// the axis they aggregate across.
var lbsFullDims = []string{
	"POSITION", "INSTRUMENT", "DENOM", "CURR_TYPE",
	"PARENT_CTY", "REP_BANK_TYPE", "REP_CTY", "CP_SECTOR", "CP_COUNTRY",
}

func init() {
	recon.RegisterCatalog(recon.Catalog{
		ID:          "lbsr",
		Name:        "LBS residency",
		Description: "Internal consistency of the locational-by-residency report",
		Kind:        recon.KindInternal,
		Rules:       lbsrInternalRules,
	})
	recon.RegisterCatalog(recon.Catalog{
		ID:          "lbsn",
		Name:        "LBS nationality",
		Description: "Internal consistency of the locational-by-nationality report",
		Kind:        recon.KindInternal,
		Rules:       lbsnInternalRules,
	})
	recon.RegisterCatalog(recon.Catalog{
		ID:          "lbs_cross",
		Name:        "LBS residency vs nationality",
		Description: "Consistency between the residency and nationality reports",
		Kind:        recon.KindCross,
		Rules:       lbsCrossRules,
	})
}

// lbsCommonRules returns the aggregation rules shared by the residency and
// nationality reports: currency, sector, instrument and bank-type
// breakdowns.
func lbsCommonRules(prefix string) []recon.Rule {
	return []recon.Rule{
		// Currency breakdown.
		{
			ID:          prefix + "_CC01",
			Description: "Currency aggregates: all currencies (TO1:A) = domestic (local:D) + foreign (TO1:F)",
			LHS: recon.Where(recon.And(
				recon.Eq("DENOM", CcyAllCurrencies),
				recon.Eq("CURR_TYPE", string(CurrTypeAll)),
			)),
			RHS: recon.Where(recon.Or(
				recon.And(recon.EqCtx("DENOM", recon.CtxCurrency), recon.Eq("CURR_TYPE", string(CurrTypeDomestic))),
				recon.And(recon.Eq("DENOM", CcyAllCurrencies), recon.Eq("CURR_TYPE", string(CurrTypeForeign))),
			)),
			Dims:      dimsWithout(lbsFullDims, "DENOM", "CURR_TYPE"),
			Op:        recon.OpEq,
			Tolerance: 4.0,
		},
		{
			ID:          prefix + "_CC02",
			Description: "Foreign currency aggregate: total foreign (TO1:F) = major currencies + other (TO3:F)",
			LHS: recon.Where(recon.And(
				recon.Eq("DENOM", CcyAllCurrencies),
				recon.Eq("CURR_TYPE", string(CurrTypeForeign)),
			)),
			RHS: recon.Where(recon.And(
				recon.In("DENOM", "USD", "EUR", "JPY", "CHF", "GBP", CcyOtherCurrencies),
				recon.Eq("CURR_TYPE", string(CurrTypeForeign)),
			)),
			Dims:      dimsWithout(lbsFullDims, "DENOM"),
			Op:        recon.OpEq,
			Tolerance: 4.0,
		},

		// Counterparty sector breakdown.
		{
			ID:          prefix + "_CC04",
			Description: "Sector aggregate: all sectors (A) = banks (B) + non-banks (N) + unallocated (U)",
			LHS: recon.Where(recon.And(
				recon.Neq("INSTRUMENT", string(InstrMemo)),
				recon.Eq("CP_SECTOR", string(SectorAll)),
			)),
			RHS: recon.Where(recon.And(
				recon.Neq("INSTRUMENT", string(InstrMemo)),
				recon.In("CP_SECTOR", codes(SectorBanks, SectorNonBanks, SectorUnallocated)...),
			)),
			Dims:      dimsWithout(lbsFullDims, "CP_SECTOR"),
			Op:        recon.OpEq,
			Tolerance: 9.0,
		},
		{
			ID:          prefix + "_CC05",
			Description: "Bank sector: banks (B) = related (I) + central bank (M) + unrelated (J)",
			LHS:         recon.Where(recon.Eq("CP_SECTOR", string(SectorBanks))),
			RHS:         recon.Where(recon.In("CP_SECTOR", codes(SectorRelatedBanks, SectorCentralBank, SectorUnrelated)...)),
			Dims:        dimsWithout(lbsFullDims, "CP_SECTOR"),
			Op:          recon.OpEq,
			Tolerance:   9.0,
		},
		{
			ID:          prefix + "_CC06",
			Description: "Non-bank sector: non-banks (N) = financial (F) + non-financial (P)",
			LHS:         recon.Where(recon.Eq("CP_SECTOR", string(SectorNonBanks))),
			RHS:         recon.Where(recon.In("CP_SECTOR", codes(SectorFinancial, SectorNonFinancial)...)),
			Dims:        dimsWithout(lbsFullDims, "CP_SECTOR"),
			Op:          recon.OpEq,
			Tolerance:   9.0,
		},
		{
			ID:          prefix + "_CC07",
			Description: "Non-financial sector: P = corporate (C) + government (G) + households (H)",
			LHS:         recon.Where(recon.Eq("CP_SECTOR", string(SectorNonFinancial))),
			RHS:         recon.Where(recon.In("CP_SECTOR", codes(SectorCorporate, SectorGovernment, SectorHouseholds)...)),
			Dims:        dimsWithout(lbsFullDims, "CP_SECTOR"),
			Op:          recon.OpEq,
			Tolerance:   9.0,
		},

		// Instrument breakdown. Some reporters split I into V and K up
		// front; CC28 checks that refinement separately.
		{
			ID:          prefix + "_CC08",
			Description: "Instrument aggregate: all instruments (A) = debt (D) + loans/deposits (G) + other (I)",
			LHS:         recon.Where(recon.Eq("INSTRUMENT", string(InstrAll))),
			RHS:         recon.Where(recon.In("INSTRUMENT", codes(InstrDebt, InstrLoansDep, InstrOther)...)),
			Dims:        dimsWithout(lbsFullDims, "INSTRUMENT"),
			Op:          recon.OpEq,
			Tolerance:   3.0,
		},
		{
			ID:          prefix + "_CC28",
			Description: "Other instruments: other (I) = derivatives (V) + residual (K)",
			LHS:         recon.Where(recon.Eq("INSTRUMENT", string(InstrOther))),
			RHS:         recon.Where(recon.In("INSTRUMENT", codes(InstrDerivatives, InstrResidual)...)),
			Dims:        dimsWithout(lbsFullDims, "INSTRUMENT"),
			Op:          recon.OpEq,
			Tolerance:   3.0,
		},

		// Reporting bank type breakdown.
		{
			ID:          prefix + "_CC10",
			Description: "Bank type: all banks (A) = domestic (D) + foreign branches (B) + foreign subsidiaries (S)",
			LHS:         recon.Where(recon.Eq("REP_BANK_TYPE", string(BankTypeAll))),
			RHS:         recon.Where(recon.In("REP_BANK_TYPE", codes(BankTypeDomestic, BankTypeBranches, BankTypeSubs)...)),
			Dims:        dimsWithout(lbsFullDims, "REP_BANK_TYPE"),
			Op:          recon.OpEq,
			Tolerance:   7.0,
		},
	}
}

// lbsrInternalRules adds the residency-specific counterparty-country
// breakdowns to the common set.
func lbsrInternalRules() []recon.Rule {
	rules := lbsCommonRules("LBSR")

	rules = append(rules, recon.Rule{
		ID:          "LBSR_CC14",
		Description: "Residency: all countries (5J) = residents (reporting country) + non-residents (5Z) + unallocated (5M)",
		LHS:         recon.Where(recon.Eq("CP_COUNTRY", AreaAllCountries)),
		RHS:         recon.Where(recon.InCtx("CP_COUNTRY", recon.CtxCountry, AreaNonResidents, AreaUnallocated)),
		Dims:        dimsWithout(lbsFullDims, "CP_COUNTRY"),
		Op:          recon.OpEq,
		Tolerance:   10.0,
	})
	rules = append(rules, recon.Rule{
		ID:          "LBSR_CC15",
		Description: "Non-residents (5Z) = sum of individual non-resident countries",
		LHS:         recon.Where(recon.Eq("CP_COUNTRY", AreaNonResidents)),
		RHS: recon.Where(recon.NotInCtx("CP_COUNTRY", recon.CtxCountry,
			AreaUnallocated, AreaAllCountries, AreaNonResidents)),
		Dims:      dimsWithout(lbsFullDims, "CP_COUNTRY"),
		Op:        recon.OpEq,
		Tolerance: 10.0,
	})

	return rules
}

// lbsnInternalRules adds the parent-country breakdowns to the common set.
// The nationality report aggregates by PARENT_CTY where the residency
// report aggregates by CP_COUNTRY.
func lbsnInternalRules() []recon.Rule {
	rules := lbsCommonRules("LBSN")

	rules = append(rules, recon.Rule{
		ID:          "LBSN_CC11",
		Description: "Parent country: all countries (5J) = BIS parents (5L) + non-BIS parents (5X) + consortium (1G) + unallocated (5M)",
		LHS:         recon.Where(recon.Eq("PARENT_CTY", AreaAllCountries)),
		RHS:         recon.Where(recon.In("PARENT_CTY", AreaBISParents, AreaNonBISParents, AreaConsortium, AreaUnallocated)),
		Dims:        dimsWithout(lbsFullDims, "PARENT_CTY"),
		Op:          recon.OpEq,
		Tolerance:   7.0,
	})

	return rules
}

// lbsCrossRules compares the residency report (LHS) against the
// nationality report (RHS).
func lbsCrossRules() []recon.Rule {
	// allBanksCell selects a position across all parents and bank types.
	allBanksCell := func(pos Position, instruments ...Instrument) recon.Expr {
		return recon.And(
			recon.Eq("POSITION", string(pos)),
			recon.In("INSTRUMENT", codes(instruments...)...),
			recon.Eq("PARENT_CTY", AreaAllCountries),
			recon.Eq("REP_BANK_TYPE", string(BankTypeAll)),
		)
	}
	// domesticCell selects domestic banks on the residency side.
	domesticCell := func(pos Position, instruments ...Instrument) recon.Expr {
		return recon.And(
			recon.Eq("POSITION", string(pos)),
			recon.In("INSTRUMENT", codes(instruments...)...),
			recon.Eq("PARENT_CTY", AreaAllCountries),
			recon.Eq("REP_BANK_TYPE", string(BankTypeDomestic)),
		)
	}
	// homeParentCell selects parents in the reporting country on the
	// nationality side.
	homeParentCell := func(pos Position, instruments ...Instrument) recon.Expr {
		return recon.And(
			recon.Eq("POSITION", string(pos)),
			recon.In("INSTRUMENT", codes(instruments...)...),
			recon.EqCtx("PARENT_CTY", recon.CtxCountry),
			recon.Eq("REP_BANK_TYPE", string(BankTypeAll)),
		)
	}

	return []recon.Rule{
		{
			ID:          "LBS_CC22",
			Description: "Residency claims (all banks) = nationality claims (all parents)",
			LHS:         recon.Where(allBanksCell(PosClaims, InstrAll)),
			RHS:         recon.Where(allBanksCell(PosClaims, InstrAll)),
			Dims:        LBSCrossDims,
			Op:          recon.OpEq,
			Tolerance:   4.0,
		},
		{
			ID:          "LBS_CC24",
			Description: "Residency claims (domestic banks) = nationality claims (parents in reporting country)",
			LHS:         recon.Where(domesticCell(PosClaims, InstrAll)),
			RHS:         recon.Where(homeParentCell(PosClaims, InstrAll)),
			Dims:        LBSCrossDims,
			Op:          recon.OpEq,
			Tolerance:   6.0,
		},
		{
			ID:          "LBS_CC23",
			Description: "Residency liabilities (all banks) = nationality liabilities (all parents)",
			LHS:         recon.Where(allBanksCell(PosLiabilities, InstrAll)),
			RHS:         recon.Where(allBanksCell(PosLiabilities, InstrAll)),
			Dims:        LBSCrossDims,
			Op:          recon.OpEq,
			Tolerance:   4.0,
		},
		{
			ID:          "LBS_CC25",
			Description: "Residency liabilities (domestic banks) = nationality liabilities (parents in reporting country)",
			LHS:         recon.Where(domesticCell(PosLiabilities, InstrAll)),
			RHS:         recon.Where(homeParentCell(PosLiabilities, InstrAll)),
			Dims:        LBSCrossDims,
			Op:          recon.OpEq,
			Tolerance:   6.0,
		},
		{
			ID:          "LBS_CC26",
			Description: "Residency debt liabilities (all banks) = nationality debt liabilities (all parents)",
			LHS:         recon.Where(allBanksCell(PosLiabilities, InstrDebt, InstrMemo)),
			RHS:         recon.Where(allBanksCell(PosLiabilities, InstrDebt, InstrMemo)),
			Dims:        LBSCrossDims,
			Op:          recon.OpEq,
			Tolerance:   4.0,
		},
		{
			ID:          "LBS_CC27",
			Description: "Residency debt liabilities (domestic banks) = nationality debt liabilities (parents in reporting country)",
			LHS:         recon.Where(domesticCell(PosLiabilities, InstrDebt, InstrMemo)),
			RHS:         recon.Where(homeParentCell(PosLiabilities, InstrDebt, InstrMemo)),
			Dims:        LBSCrossDims,
			Op:          recon.OpEq,
			Tolerance:   6.0,
		},
	}
}
