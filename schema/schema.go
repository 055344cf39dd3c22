// Package schema holds the fixed knowledge-graph schema shared by query
// generation and validation: the node-label and relationship-type
// allow-lists, the prompt text describing them, and query-type detection.
//
// The schema is the ground truth both the validator and the generation
// prompt are built from; changing one side without the other breaks the
// contract between them.
package schema

// Labels is the allow-list of node labels a generated query may reference.
var Labels = []string{
	"Company", "PriceDay", "Year", "Quarter", "Month",
	"Sector", "Country", "State", "City",
}

// RelTypes is the allow-list of relationship types.
var RelTypes = []string{
	"HAS_PRICE", "IN_YEAR", "IN_QUARTER", "IN_MONTH",
	"PERFORMED_IN", "CORRELATED_WITH", "GDS_SIMILAR",
	"IN_SECTOR", "LOCATED_IN", "IN_STATE", "IN_CITY", "IN_COUNTRY",
}

// ForbiddenOps are write operations a generated query must never contain.
// DETACH DELETE is covered by DELETE but kept for an explicit error message.
var ForbiddenOps = []string{"CREATE", "MERGE", "DELETE", "SET", "REMOVE", "DETACH DELETE"}

// Strict is the full schema description handed to the model for query
// generation. It enumerates every node and relationship type with
// properties and spells out the forbidden operations.
const Strict = `Graph Schema (STRICT - use ONLY these):

NODE TYPES:
1. Company {symbol: String, sector: String, fulltimeemployees: Integer, marketcap: Float, pagerank: Float, community: Integer}
2. PriceDay {date: Date, open: Float, high: Float, low: Float, close: Float, adj_close: Float, volume: Integer}
3. Year {year: Integer}
4. Quarter {year: Integer, quarter: Integer}
5. Month {year: Integer, month: Integer}
6. Sector {name: String}
7. Country {name: String}
8. State {name: String, country: String}
9. City {name: String, state: String, country: String}

RELATIONSHIP TYPES (EXACT):
1. (:Company)-[:HAS_PRICE]->(:PriceDay)
2. (:PriceDay)-[:IN_YEAR]->(:Year)
3. (:PriceDay)-[:IN_QUARTER]->(:Quarter)
4. (:PriceDay)-[:IN_MONTH]->(:Month)
5. (:Company)-[:PERFORMED_IN {return_pct: Float, start_price: Float, end_price: Float}]->(:Year)
6. (:Company)-[:CORRELATED_WITH {correlation: Float, sample_size: Integer}]-(:Company)
7. (:Company)-[:GDS_SIMILAR {score: Float}]-(:Company)
8. (:Company)-[:IN_SECTOR]->(:Sector)
9. (:Company)-[:LOCATED_IN]->(:Country)
10. (:Company)-[:IN_STATE]->(:State)
11. (:Company)-[:IN_CITY]->(:City)
12. (:State)-[:IN_COUNTRY]->(:Country)
13. (:City)-[:IN_STATE]->(:State)

SCHEMA RULES (MANDATORY):
- ONLY use the 9 node types listed above
- ONLY use the 13 relationship types listed above (includes GDS_SIMILAR)
- NEVER invent new node labels or relationship types
- ALWAYS use parameters: $symbol, $year, $date, etc.
- NEVER use write operations: CREATE, MERGE, DELETE, SET, REMOVE
- Date format: use date() or date literals like date('2022-01-01')
- Year property: use y.year; quarter: q.quarter; month: m.month`

// Compact is the short schema used for simple single-hop questions.
const Compact = `Graph Schema:
Company {symbol} -[:HAS_PRICE]-> PriceDay {date, close, volume, open, high, low}

Extended (for advanced queries):
- Time dimensions: Year {year}, Quarter {year, quarter}, Month {year, month}
- (:PriceDay)-[:IN_YEAR]->(:Year)
- (:Company)-[:PERFORMED_IN {return_pct, start_price, end_price}]->(:Year)
- (:Company)-[:CORRELATED_WITH {correlation, sample_size}]-(:Company)`
