// Package html extracts readable text from HTML partner documents, such as
// payout statements exported from a billing portal. Scripts and styles are
// dropped, entities decoded and table rows kept on a single line.
package html
