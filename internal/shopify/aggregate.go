package shopify

import (
	"github.com/ignite/commerce-ingest/internal/normalize"
)

const (
	SourceCode = "SHOPIFY"
	Platform   = "shopify"
)

type productTotals struct {
	items   float64
	revenue float64
	orders  map[string]bool
	buyers  map[string]bool
}

// Aggregate rolls orders up per product: units sold, distinct orders,
// distinct customers and line revenue (price x quantity). Lines without a
// product id (custom items) are skipped. Rows come out in first-seen order.
func Aggregate(orders []Order, date string) []normalize.FactRow {
	var order []string
	byProduct := make(map[string]*productTotals)
	for _, o := range orders {
		customer := ""
		if o.Customer != nil {
			customer = o.Customer.ID.String()
		}
		for _, li := range o.LineItems {
			pid := li.ProductID.String()
			if pid == "" || pid == "0" {
				continue
			}
			acc, ok := byProduct[pid]
			if !ok {
				acc = &productTotals{orders: map[string]bool{}, buyers: map[string]bool{}}
				byProduct[pid] = acc
				order = append(order, pid)
			}
			acc.items += li.Quantity
			acc.revenue += normalize.Number(li.Price) * li.Quantity
			acc.orders[o.ID.String()] = true
			if customer != "" {
				acc.buyers[customer] = true
			}
		}
	}

	rows := make([]normalize.FactRow, 0, len(order))
	for _, pid := range order {
		acc := byProduct[pid]
		rows = append(rows, normalize.FactRow{
			SourceCode: SourceCode,
			Platform:   Platform,
			ProductID:  pid,
			StatDate:   date,
			PayItems:   acc.items,
			PayOrders:  float64(len(acc.orders)),
			PayBuyers:  float64(len(acc.buyers)),
			Revenue:    acc.revenue,
		})
	}
	return rows
}
