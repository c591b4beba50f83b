// Package kvstore implements the backend-agnostic storage-engine contract:
// the logical tables of spec §3, a StoreEngine interface two backends
// satisfy, and the Store facade that layers genesis install and world-state
// root computation on top.
package kvstore

// Table name constants, kept in the teacher's flat-string idiom
// (erigon-lib/kv/tables.go) but trimmed from erigon's ~80-table schema down
// to the nine logical tables spec §3 names.
const (
	TableAccountInfos         = "AccountInfo"
	TableAccountStorages      = "AccountStorage"
	TableAccountCodes         = "Code"
	TableHeaders              = "Header"
	TableBodies               = "BlockBody"
	TableBlockNumbers         = "HeaderNumber"
	TableTransactionLocations = "BlockTransactionLookup"
	TableReceipts             = "ReceiptCache"
	TableChainData            = "Config"
)

// ChaindataTables lists every table an embedded backend must open a DBI
// for at startup.
var ChaindataTables = []string{
	TableAccountInfos,
	TableAccountStorages,
	TableAccountCodes,
	TableHeaders,
	TableBodies,
	TableBlockNumbers,
	TableTransactionLocations,
	TableReceipts,
	TableChainData,
}

// TableFlags mirrors the teacher's MDBX table-flag idiom (erigon-lib/kv),
// trimmed to the flags this schema actually needs.
type TableFlags uint

const (
	Default TableFlags = 0x00
	DupSort TableFlags = 0x04
)

type TableCfgItem struct {
	Flags TableFlags
}

type TableCfg map[string]TableCfgItem

// ChaindataTablesCfg gives AccountStorage DupSort semantics: multiple
// storage-key/value pairs share one logical account key, matching the
// teacher's PlainState/HashedStorage DupSort convention.
var ChaindataTablesCfg = TableCfg{
	TableAccountStorages: {Flags: DupSort},
}

func init() {
	for _, name := range ChaindataTables {
		if _, ok := ChaindataTablesCfg[name]; !ok {
			ChaindataTablesCfg[name] = TableCfgItem{}
		}
	}
}

// Chain tag keys within TableChainData's singleton key space.
const (
	keyChainConfig = "chain_config"
	keyEarliest    = "tag_earliest"
	keyFinalized   = "tag_finalized"
	keySafe        = "tag_safe"
	keyLatest      = "tag_latest"
	keyPending     = "tag_pending"
)
