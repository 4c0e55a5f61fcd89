package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/statglass/ibsrecon/internal/cli/output"
	"github.com/statglass/ibsrecon/pkg/recon"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Catalog string
	Verbose bool
	JSON    bool
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}

	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List available consistency rules",
		Long: `List the registered rule catalogs and their consistency rules.

Each rule states an identity between two aggregated row selections. Use
--verbose to see the selection filters, grouping dimensions, and
tolerances, or name a rule to see its full definition.`,
		Example: `  # List all rules
  ibsrecon rules

  # Show one rule's definition
  ibsrecon rules LBSR_CC14

  # List the locational-by-residency catalog only
  ibsrecon rules --catalog lbsr

  # Machine-readable listing
  ibsrecon rules --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Catalog, "catalog", "c", "", "Only list rules from this catalog")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show filters, dimensions and tolerances")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")

	return cmd
}

// ruleInfo is the JSON shape of one rule.
type ruleInfo struct {
	ID          string   `json:"id"`
	Catalog     string   `json:"catalog"`
	Description string   `json:"description"`
	LHS         string   `json:"lhs"`
	RHS         string   `json:"rhs"`
	Operator    string   `json:"operator"`
	Dims        []string `json:"dims"`
	Tolerance   float64  `json:"tolerance"`
}

func ruleInfoFrom(catalogID string, r recon.Rule) ruleInfo {
	return ruleInfo{
		ID:          r.ID,
		Catalog:     catalogID,
		Description: r.Description,
		LHS:         r.LHS.String(),
		RHS:         r.RHS.String(),
		Operator:    r.Op.Symbol(),
		Dims:        r.Dims,
		Tolerance:   r.Tolerance,
	}
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	catalogs := recon.Catalogs()
	if opts.Catalog != "" {
		c, ok := recon.LookupCatalog(opts.Catalog)
		if !ok {
			return fmt.Errorf("catalog %q not found (known: %s)",
				opts.Catalog, strings.Join(recon.CatalogIDs(), ", "))
		}
		catalogs = []recon.Catalog{c}
	}

	if opts.JSON {
		return listRulesJSON(r, catalogs)
	}
	return listRulesText(r, catalogs, opts.Verbose)
}

func listRulesText(r *output.Renderer, catalogs []recon.Catalog, verbose bool) error {
	styles := r.Styles()

	total := 0
	for _, c := range catalogs {
		total += len(c.Rules())
	}

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Consistency Rules (%d rules, %d catalogs)", total, len(catalogs))))
	r.Println("")

	for _, c := range catalogs {
		r.Println(styles.Header2.Render(fmt.Sprintf("%s - %s (%s)", c.ID, c.Name, c.Kind)))
		if c.Description != "" {
			r.Println(styles.Muted.Render("  " + c.Description))
		}
		for _, rule := range c.Rules() {
			r.Printf("    %s  %s\n", styles.Bold.Render(rule.ID), rule.Description)
			if verbose {
				r.Println(styles.Muted.Render("        LHS: " + rule.LHS.String()))
				r.Println(styles.Muted.Render("        RHS: " + rule.RHS.String()))
				r.Println(styles.Muted.Render(fmt.Sprintf("        %s within %v, by %s",
					rule.Op.Symbol(), rule.Tolerance, strings.Join(rule.Dims, ", "))))
			}
		}
		r.Println("")
	}

	r.Println(styles.Muted.Render("Use 'ibsrecon rules <rule-id>' for a rule's full definition"))
	r.Println("")
	return nil
}

// rulesJSONOutput is the JSON output structure for the rules listing.
type rulesJSONOutput struct {
	Rules []ruleInfo `json:"rules"`
	Count int        `json:"count"`
}

func listRulesJSON(r *output.Renderer, catalogs []recon.Catalog) error {
	out := rulesJSONOutput{Rules: []ruleInfo{}}
	for _, c := range catalogs {
		for _, rule := range c.Rules() {
			out.Rules = append(out.Rules, ruleInfoFrom(c.ID, rule))
		}
	}
	out.Count = len(out.Rules)

	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	ruleID = strings.ToUpper(ruleID)
	for _, c := range recon.Catalogs() {
		for _, rule := range c.Rules() {
			if rule.ID != ruleID {
				continue
			}
			if opts.JSON {
				enc := json.NewEncoder(r.Writer())
				enc.SetIndent("", "  ")
				return enc.Encode(ruleInfoFrom(c.ID, rule))
			}
			return showRuleText(r, c, rule)
		}
	}
	return fmt.Errorf("rule %q not found", ruleID)
}

func showRuleText(r *output.Renderer, c recon.Catalog, rule recon.Rule) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(rule.ID))
	r.Println("")
	r.Printf("  %s: %s (%s)\n", styles.Bold.Render("Catalog"), c.Name, c.ID)
	r.Printf("  %s: %s\n", styles.Bold.Render("Checks"), rule.Description)
	r.Println("")
	r.Printf("  %s: %s\n", styles.Bold.Render("LHS"), rule.LHS.String())
	r.Printf("  %s: %s\n", styles.Bold.Render("RHS"), rule.RHS.String())
	r.Printf("  %s: LHS %s RHS within %v\n", styles.Bold.Render("Asserts"), rule.Op.Symbol(), rule.Tolerance)
	r.Printf("  %s: %s\n", styles.Bold.Render("Grouped by"), strings.Join(rule.Dims, ", "))
	r.Println("")
	return nil
}
