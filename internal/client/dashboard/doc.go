// Package dashboard keeps the cached request list behind the dashboard and
// derives the filtered view shown to the user.
//
// Data fetches the full list on first mount and on demand. Every fetch
// replaces the cache wholesale; a failed fetch records the error and leaves
// the cache as it was. Concurrent fetches are not deduplicated and, unless
// the sequence guard is enabled, the response that arrives last wins.
//
// Apply is a pure function of the list, the selected status and the finance
// flag. Output order always equals input order.
package dashboard
