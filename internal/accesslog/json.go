package accesslog

import "github.com/tidwall/gjson"

// ParseJSON extracts a Record from a JSON access log line. The same contract
// as ParseKV applies: pool, release and upstream_status must all be present.
//
// upstream_status accepts a number ("upstream_status":502), a status list
// string ("502, 200") or an array of either; the first code wins, matching
// the key=value format.
func ParseJSON(line string) (Record, bool) {
	if !gjson.Valid(line) {
		return Record{}, false
	}
	pool := gjson.Get(line, "pool")
	release := gjson.Get(line, "release")
	rawStatus := gjson.Get(line, "upstream_status")
	if !pool.Exists() || !release.Exists() || !rawStatus.Exists() {
		return Record{}, false
	}
	status, ok := statusFromJSON(rawStatus)
	if !ok {
		return Record{}, false
	}
	if pool.String() == "" || release.String() == "" {
		return Record{}, false
	}
	return Record{Pool: pool.String(), Release: release.String(), Status: status}, true
}

func statusFromJSON(value gjson.Result) (int, bool) {
	if value.IsArray() {
		elems := value.Array()
		if len(elems) == 0 {
			return 0, false
		}
		value = elems[0]
	}
	switch value.Type {
	case gjson.Number:
		return int(value.Int()), true
	case gjson.String:
		return firstStatus(value.Str)
	default:
		return 0, false
	}
}
