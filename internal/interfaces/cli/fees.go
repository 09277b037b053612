package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	domainCosting "github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// NewFeesCmd groups fee schedule commands.
func NewFeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fees",
		Short: "Inspect official fee schedules",
	}
	cmd.AddCommand(newFeesListCmd())
	return cmd
}

func newFeesListCmd() *cobra.Command {
	var (
		jurisdiction string
		ipType       string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List the fee records in force today for one office",
		Example: `  ipcost fees list --jurisdiction EPO -o table`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			t := domainCosting.IPType(strings.ToLower(strings.TrimSpace(ipType)))
			switch t {
			case domainCosting.IPTypePatent, domainCosting.IPTypeTrademark, domainCosting.IPTypeDesign:
			default:
				return errors.Validation("invalid fee query", "ip-type must be patent, trademark or design")
			}

			ctx, cancel := withTimeout(cmd, cliCtx)
			defer cancel()
			svc, err := cliCtx.Service(ctx)
			if err != nil {
				return err
			}
			fees, err := svc.ListFees(ctx, jurisdiction, t)
			if err != nil {
				return err
			}
			if fees == nil {
				fees = []domainCosting.FeeRecord{}
			}
			return PrintResult(cmd, feeListView(fees))
		},
	}
	cmd.Flags().StringVarP(&jurisdiction, "jurisdiction", "j", "", "patent office, e.g. USPTO [REQUIRED]")
	cmd.Flags().StringVar(&ipType, "ip-type", string(domainCosting.IPTypePatent), "patent, trademark or design")
	_ = cmd.MarkFlagRequired("jurisdiction")
	return cmd
}

type feeListView []domainCosting.FeeRecord

func (v feeListView) JSONValue() interface{} { return []domainCosting.FeeRecord(v) }

func (v feeListView) TableHeaders() []string {
	return []string{"CATEGORY", "STAGE", "YEAR", "CURRENCY", "AMOUNT", "DESCRIPTION"}
}

func (v feeListView) TableRows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, f := range v {
		year := ""
		if f.YearDue != nil {
			year = strconv.Itoa(*f.YearDue)
		}
		rows = append(rows, []string{
			string(f.Category), string(f.Stage), year, f.Currency, feeAmount(f), f.Description,
		})
	}
	return rows
}

func (v feeListView) String() string {
	if len(v) == 0 {
		return "No fees in force.\n"
	}
	var b strings.Builder
	for _, f := range v {
		fmt.Fprintf(&b, "%-12s %-10s %s %s", f.Category, f.Stage, f.Currency, feeAmount(f))
		if f.YearDue != nil {
			fmt.Fprintf(&b, " (year %d)", *f.YearDue)
		}
		if f.Description != "" {
			fmt.Fprintf(&b, "  %s", f.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// feeAmount shows a flat amount, or standard/small/micro for tiered records.
func feeAmount(f domainCosting.FeeRecord) string {
	if f.Amount != nil {
		return money(*f.Amount)
	}
	parts := make([]string, 0, 3)
	for _, p := range []*float64{f.StandardAmount, f.SmallEntityAmount, f.MicroEntityAmount} {
		if p == nil {
			parts = append(parts, "-")
			continue
		}
		parts = append(parts, money(*p))
	}
	return strings.Join(parts, "/")
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

//Personal.AI order the ending
