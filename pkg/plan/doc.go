// Package plan defines the subscription tiers and what each one allows.
//
// Tiers form a closed set (Basic, Professional, Clinical). Stored plan names
// are free-form strings written by older code and by checkout metadata, so
// Parse normalises them: "Clinical Plan", " clinical " and "CLINICAL" all
// resolve to Clinical, while an unrecognised name resolves to Basic.
//
// The capability table lives in an embedded plans.yaml. The payment provider
// price ids are attached at startup with Catalog.WithPrices so checkout can
// map a price back to the tier it buys.
package plan
