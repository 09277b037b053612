package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	domainCosting "github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// inputOptions binds the calculation input flags. --input replaces all of
// them with a JSON document ("-" reads stdin).
type inputOptions struct {
	inputFile      string
	jurisdictions  []string
	ipType         string
	entityType     string
	complexity     string
	duration       int
	claims         int
	pages          int
	industry       string
	companySize    string
	description    string
	skipSearchFees bool
}

func (o *inputOptions) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.inputFile, "input", "f", "", "JSON calculation input file, or - for stdin")
	fs.StringSliceVarP(&o.jurisdictions, "jurisdictions", "j", nil, "patent offices, e.g. USPTO,EPO,IPOS")
	fs.StringVar(&o.ipType, "ip-type", "", "patent, trademark or design (default patent)")
	fs.StringVar(&o.entityType, "entity", "", "applicant size tier: standard, small or micro")
	fs.StringVar(&o.complexity, "complexity", "", "Simple, Complex, Cutting-Edge or Software/Biotech")
	fs.IntVar(&o.duration, "duration", 0, "years of protection (default 20)")
	fs.IntVar(&o.claims, "claims", 0, "number of claims")
	fs.IntVar(&o.pages, "pages", 0, "number of specification pages")
	fs.StringVar(&o.industry, "industry", "", "industry sector")
	fs.StringVar(&o.companySize, "company-size", "", "company size, e.g. startup or sme")
	fs.StringVar(&o.description, "description", "", "short business description")
	fs.BoolVar(&o.skipSearchFees, "skip-search-fees", false, "exclude search fees (search already performed)")
}

func (o *inputOptions) build(stdin io.Reader) (domainCosting.CalculationInput, error) {
	if o.inputFile != "" {
		return readInput(o.inputFile, stdin)
	}
	if len(o.jurisdictions) == 0 {
		return domainCosting.CalculationInput{}, errors.Validation("invalid calculation input",
			"--jurisdictions or --input is required")
	}
	in := domainCosting.CalculationInput{
		IPType:              domainCosting.IPType(strings.ToLower(o.ipType)),
		EntityType:          domainCosting.EntityType(strings.ToLower(o.entityType)),
		Complexity:          domainCosting.Complexity(o.complexity),
		ProtectionDuration:  o.duration,
		ClaimCount:          o.claims,
		PageCount:           o.pages,
		IndustrySector:      o.industry,
		CompanySize:         o.companySize,
		BusinessDescription: o.description,
		SkipSearchFees:      o.skipSearchFees,
	}
	for _, j := range o.jurisdictions {
		in.Jurisdictions = append(in.Jurisdictions, domainCosting.Jurisdiction(j))
	}
	return in, nil
}

func readInput(path string, stdin io.Reader) (domainCosting.CalculationInput, error) {
	var in domainCosting.CalculationInput
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return in, errors.Wrap(err, errors.ErrCodeBadRequest, "cannot open input file").WithDetail(path)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, errors.Wrap(err, errors.ErrCodeSerialization, "malformed calculation input").WithDetail(err.Error())
	}
	return in, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// calculate
// ─────────────────────────────────────────────────────────────────────────────

// NewCalculateCmd runs and stores a full calculation.
func NewCalculateCmd() *cobra.Command {
	var (
		in    inputOptions
		email string
	)

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Run a full cost calculation",
		Example: `  ipcost calculate -j USPTO,EPO --entity small --claims 30
  ipcost calculate -f input.json -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			input, err := in.build(cmd.InOrStdin())
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, cliCtx)
			defer cancel()

			svc, err := cliCtx.Service(ctx)
			if err != nil {
				return err
			}
			rec, err := svc.Calculate(ctx, input)
			if err != nil {
				return err
			}
			if email = strings.TrimSpace(email); email != "" {
				updated, uerr := svc.UpdateCalculation(ctx, rec.ID, domainCosting.CalculationPatch{Email: &email})
				if uerr != nil {
					PrintError(cmd, uerr)
				} else {
					rec = updated
				}
			}
			return PrintResult(cmd, calculationView{rec})
		},
	}
	in.bind(cmd.Flags())
	cmd.Flags().StringVar(&email, "email", "", "contact email recorded with the calculation")
	return cmd
}

// calculationView renders a CalculationRecord for the terminal.
type calculationView struct {
	rec *domainCosting.CalculationRecord
}

func (v calculationView) JSONValue() interface{} { return v.rec }

func (v calculationView) TableHeaders() []string {
	return []string{"JURISDICTION", "CURRENCY", "FILING", "PROSECUTION", "MAINTENANCE", "TOTAL", "WITH GRANTS", "COMPLETE"}
}

func (v calculationView) TableRows() [][]string {
	res := v.rec.Result
	if res == nil {
		return nil
	}
	rows := make([][]string, 0, len(res.PerJurisdiction)+1)
	for _, jc := range res.PerJurisdiction {
		c := jc.Costs
		rows = append(rows, []string{
			string(jc.Jurisdiction),
			jc.NativeCurrency,
			domainCosting.FormatUSD(c.Filing),
			domainCosting.FormatUSD(c.Search + c.Examination + c.Issue + c.ClaimsExtra + c.PagesExtra + c.Designations),
			domainCosting.FormatUSD(c.Maintenance),
			domainCosting.FormatUSD(c.Total),
			domainCosting.FormatUSD(c.DiscountedTotal),
			yesNo(jc.DataComplete),
		})
	}
	rows = append(rows, []string{"ALL", res.ReportingCurrency, "", "", "",
		domainCosting.FormatUSD(res.TotalCost), domainCosting.FormatUSD(res.TotalWithGrants), ""})
	return rows
}

func (v calculationView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Calculation %s (%s)\n", v.rec.ID, v.rec.Status)
	res := v.rec.Result
	if res == nil {
		return b.String()
	}
	fmt.Fprintf(&b, "Total cost:        %s\n", domainCosting.FormatUSD(res.TotalCost))
	fmt.Fprintf(&b, "With grants:       %s\n", domainCosting.FormatUSD(res.TotalWithGrants))
	fmt.Fprintf(&b, "Potential savings: %s\n", domainCosting.FormatUSD(res.PotentialSavings))
	fmt.Fprintf(&b, "Risk score:        %.2f\n", res.RiskScore)
	fmt.Fprintf(&b, "Strategy:          %s\n", res.SuggestedStrategy)
	fmt.Fprintf(&b, "Filing to grant:   %d-%d months\n", res.Timeline.FilingToGrant.Min, res.Timeline.FilingToGrant.Max)
	for _, jc := range res.PerJurisdiction {
		fmt.Fprintf(&b, "  %-6s %s\n", jc.Jurisdiction, domainCosting.FormatUSD(jc.Costs.Total))
	}
	writeList(&b, "Alerts", res.CashFlowAlerts)
	if len(res.Insights) > 0 {
		b.WriteString("Insights:\n")
		for _, in := range res.Insights {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", in.Priority, in.Title, in.Message)
		}
	}
	writeAssumptions(&b, res.Assumptions)
	return b.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// preview
// ─────────────────────────────────────────────────────────────────────────────

// NewPreviewCmd runs the free preview. Nothing is stored.
func NewPreviewCmd() *cobra.Command {
	var in inputOptions

	cmd := &cobra.Command{
		Use:     "preview",
		Short:   "Show the free cost preview (no narrative, nothing stored)",
		Example: `  ipcost preview -j USPTO,EPO,IPOS -o table`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			input, err := in.build(cmd.InOrStdin())
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout(cmd, cliCtx)
			defer cancel()

			svc, err := cliCtx.Service(ctx)
			if err != nil {
				return err
			}
			p, err := svc.Preview(ctx, input)
			if err != nil {
				return err
			}
			return PrintResult(cmd, previewView{p})
		},
	}
	in.bind(cmd.Flags())
	return cmd
}

type previewView struct {
	p *domainCosting.Preview
}

func (v previewView) JSONValue() interface{} { return v.p }

func (v previewView) TableHeaders() []string { return []string{"JURISDICTION", "TOTAL"} }

func (v previewView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.p.PerJurisdiction)+1)
	for _, jt := range v.p.PerJurisdiction {
		rows = append(rows, []string{string(jt.Jurisdiction), domainCosting.FormatUSD(jt.Total)})
	}
	return append(rows, []string{"ALL", domainCosting.FormatUSD(v.p.TotalCost)})
}

func (v previewView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimated total: %s\n", domainCosting.FormatUSD(v.p.TotalCost))
	for _, jt := range v.p.PerJurisdiction {
		fmt.Fprintf(&b, "  %-6s %s\n", jt.Jurisdiction, domainCosting.FormatUSD(jt.Total))
	}
	fmt.Fprintf(&b, "Filing to grant: %d-%d months\n", v.p.Timeline.FilingToGrant.Min, v.p.Timeline.FilingToGrant.Max)
	writeList(&b, "Alerts", v.p.CashFlowAlerts)
	if v.p.GenericInsight != "" {
		fmt.Fprintf(&b, "Insight: %s\n", v.p.GenericInsight)
	}
	if v.p.UpgradeTeaser != "" {
		fmt.Fprintf(&b, "%s\n", v.p.UpgradeTeaser)
	}
	writeAssumptions(&b, v.p.Assumptions)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "  - %s\n", it)
	}
}

func writeAssumptions(b *strings.Builder, as []domainCosting.Assumption) {
	if len(as) == 0 {
		return
	}
	b.WriteString("Assumptions:\n")
	for _, a := range as {
		if a.Jurisdiction != "" {
			fmt.Fprintf(b, "  - [%s] %s\n", a.Jurisdiction, a.Message)
		} else {
			fmt.Fprintf(b, "  - %s\n", a.Message)
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

//Personal.AI order the ending
