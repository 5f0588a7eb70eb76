// Package sidekick keeps a remote portfolio ledger in sync with the transaction
// exports produced by brokers and exchanges.
//
// The core functionalities include:
//   - Canonical Model: currency-tagged decimal money, accounts, balances,
//     activities and symbol profiles, shared by every file format.
//   - Ingestion: an explicit registry of format parsers, each turning a set of
//     raw files into a populated Account.
//   - Reconciliation: a stateless diff between the local activities and the
//     remote ones, keyed by reference code, producing an ordered list of
//     mutations that converge the remote ledger towards the files.
//   - Currency Conversion: same-day exchange rates with a fallback chain through
//     well-known intermediate currencies.
//   - Market Data Maintenance: linear interpolation of daily prices for manual
//     symbols from their known transaction prices, removal of unused symbols.
//   - Import Task: one directory per account. Accounts are imported
//     concurrently, the mutations of one account are applied in order.
//
// The engine is stateless between runs: every state of record lives in the
// remote ledger and is re-derived from the files on each run, so a partially
// failed run heals on the next one.
package sidekick
