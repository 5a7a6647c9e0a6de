package syncer

import (
	"fmt"
	"strings"
)

// Key delimiter is '-'; spaces and hyphens are stripped from the station
// name so the server can split keys unambiguously.
var stationSanitizer = strings.NewReplacer(" ", "", "-", "")

// IdempotencyKey maps (station, badge, local id) to the stable string the
// cloud deduplicates on. The local id is unique per station database, so
// the key is unique across events and identical across retries of one.
func IdempotencyKey(stationName, badgeID string, localID int64) string {
	return fmt.Sprintf("%s-%s-%d", stationSanitizer.Replace(stationName), badgeID, localID)
}

// NormalizeTimestamp rewrites a +00:00 offset form to the canonical
// trailing-Z form before transmission. Already-canonical values pass
// through untouched.
func NormalizeTimestamp(ts string) string {
	if strings.HasSuffix(ts, "+00:00") {
		return strings.TrimSuffix(ts, "+00:00") + "Z"
	}
	return ts
}
