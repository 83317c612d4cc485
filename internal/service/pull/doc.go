// Package pull runs the vendor-side syncs: the Amazon sales and traffic
// report workflow, the Ozon analytics pull and the Shopify order rollup.
//
// Each sync depends on a small interface over its vendor client and on a
// Sink that performs the upserts, so handlers, the worker and tests can all
// drive the same code.
package pull
