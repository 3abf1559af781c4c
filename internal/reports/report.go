// Package reports renders a buyer's order history as a plain-text report.
package reports

import (
	"fmt"
	"strings"

	"github.com/shopcore/shop-api/internal/orders"
)

const rule = "================================================================================"

// Build renders the report for a buyer from already-loaded orders. It is a
// pure function over its inputs so generation never blocks anything else.
func Build(buyerID string, list []orders.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ORDER REPORT FOR %s\n", strings.ToUpper(buyerID))
	fmt.Fprintf(&b, "Total Orders: %d\n", len(list))
	b.WriteString(rule + "\n\n")

	totalCents := 0
	totalItems := 0
	for _, o := range list {
		fmt.Fprintf(&b, "Order ID: %s\n", o.ID)
		fmt.Fprintf(&b, "Date: %s\n", o.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(&b, "Status: %s\n", o.Status)
		fmt.Fprintf(&b, "Total: %s\n", dollars(o.TotalCents))
		b.WriteString(strings.Repeat("-", 40) + "\n")
		for _, it := range o.Items {
			name := it.ProductName
			if name == "" {
				name = it.ProductID
			}
			fmt.Fprintf(&b, "  %dx %s @ %s = %s\n",
				it.Quantity, name, dollars(it.PriceCents), dollars(it.PriceCents*it.Quantity))
			totalItems += it.Quantity
		}
		b.WriteString("\n")
		totalCents += o.TotalCents
	}

	b.WriteString(rule + "\n")
	b.WriteString("SUMMARY STATISTICS\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Total Spent: %s\n", dollars(totalCents))
	if len(list) > 0 {
		fmt.Fprintf(&b, "Average Order Value: %s\n", dollars(totalCents/len(list)))
	}
	fmt.Fprintf(&b, "Total Items Purchased: %d\n", totalItems)

	return b.String()
}

func dollars(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
