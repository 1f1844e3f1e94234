// Package refcache implements the tiered reference cache in front of the
// upstream read endpoints: a small in-process cache, durable rows in the
// config store, and finally the upstream itself. Failed fetches are recorded
// so operators can see them, but are never served.
package refcache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

// CacheKey derives the row key for one upstream query: the md5 hex digest of
// the api path and the canonical JSON of the parameters. encoding/json emits
// map keys sorted, so equal parameter sets always produce equal keys.
func CacheKey(apiPath string, params map[string]any) string {
	if params == nil {
		params = map[string]any{}
	}
	canonical, err := json.Marshal(params)
	if err != nil {
		canonical = []byte("{}")
	}
	sum := md5.Sum([]byte(apiPath + ":" + string(canonical)))
	return hex.EncodeToString(sum[:])
}
