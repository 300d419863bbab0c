package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/soyeahso/backoffice/internal/admin"
	"github.com/soyeahso/backoffice/internal/coupon"
	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/spf13/cobra"
)

func newCouponCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coupon",
		Short: "Manage coupons",
	}

	cmd.AddCommand(newCouponListCmd())
	cmd.AddCommand(newCouponAddCmd())
	cmd.AddCommand(newCouponShowCmd())
	return cmd
}

func printCoupons(list []admin.CouponView) error {
	return render(list, func(w io.Writer) {
		fmt.Fprintln(w, "CODE\tTYPE\tTITLE\tAMOUNT\tEFFECT\tENABLED\tEXPIRES")
		for _, c := range list {
			expires := "-"
			if c.ExpiresAt != nil {
				expires = c.ExpiresAt.Format(time.DateOnly)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
				c.Code, c.Label, c.Title, c.Amount, c.Effect, yesNo(c.Enabled), expires)
		}
	})
}

func newCouponListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List coupons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				list, err := a.admin.ListCoupons(cmd.Context())
				if err != nil {
					return err
				}
				return printCoupons(list)
			})
		},
	}
}

// parseExpiry accepts a date or an RFC 3339 timestamp.
func parseExpiry(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid expiry %q, want YYYY-MM-DD or RFC 3339", s)
}

func newCouponAddCmd() *cobra.Command {
	var (
		c       domain.Coupon
		expires string
	)

	cmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Create or replace a coupon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Code = args[0]
			exp, err := parseExpiry(expires)
			if err != nil {
				return err
			}
			c.ExpiresAt = exp
			return withApp(func(a *app) error {
				v, err := a.admin.SaveCoupon(cmd.Context(), c)
				if err != nil {
					return err
				}
				return printCoupons([]admin.CouponView{*v})
			})
		},
	}

	types := strings.Join([]string{coupon.RemoveXAmountID, coupon.RemoveXPercentID}, ", ")
	cmd.Flags().StringVar(&c.ServiceID, "type", coupon.RemoveXAmountID, "coupon type ("+types+")")
	cmd.Flags().Float64Var(&c.Amount, "amount", 0, "amount, or percentage for percent coupons")
	cmd.Flags().StringVar(&c.Title, "title", "", "title")
	cmd.Flags().StringVar(&c.ShortDescription, "short-description", "", "short description")
	cmd.Flags().StringVar(&c.Description, "description", "", "description")
	cmd.Flags().BoolVar(&c.Cumulative, "cumulative", false, "can be combined with other coupons")
	cmd.Flags().BoolVar(&c.RemovingPostage, "removing-postage", false, "also removes postage")
	cmd.Flags().BoolVar(&c.Enabled, "enabled", true, "coupon is usable")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry date (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func newCouponShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Show a coupon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				v, err := a.admin.GetCoupon(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(v, func(w io.Writer) {
					fmt.Fprintf(w, "Code:\t%s\n", v.Code)
					fmt.Fprintf(w, "Type:\t%s (%s)\n", v.Label, v.ServiceID)
					fmt.Fprintf(w, "Title:\t%s\n", v.Title)
					if v.ShortDescription != "" {
						fmt.Fprintf(w, "Summary:\t%s\n", v.ShortDescription)
					}
					if v.Description != "" {
						fmt.Fprintf(w, "Description:\t%s\n", v.Description)
					}
					fmt.Fprintf(w, "Amount:\t%.2f\n", v.Amount)
					fmt.Fprintf(w, "Effect:\t%.2f\n", v.Effect)
					fmt.Fprintf(w, "Cumulative:\t%s\n", yesNo(v.Cumulative))
					fmt.Fprintf(w, "Removes postage:\t%s\n", yesNo(v.RemovingPostage))
					fmt.Fprintf(w, "Enabled:\t%s\n", yesNo(v.Enabled))
					if v.ExpiresAt != nil {
						fmt.Fprintf(w, "Expires:\t%s\n", v.ExpiresAt.Format(time.RFC3339))
					}
				})
			})
		},
	}
}
