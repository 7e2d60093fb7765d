// Package fingerprint derives stable content hashes for activation decisions
// so an external task store can refuse to create duplicate tasks.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/scores"
)

// #region buckets

// bucketDays is the dedupe bucket width per capacity. Two identical decisions
// for the same loop/window/reasons inside one bucket share a fingerprint.
var bucketDays = map[registry.Capacity]int{
	registry.CapacityResponsive:   7,
	registry.CapacityReflexive:    14,
	registry.CapacityDeliberative: 7,
	registry.CapacityAnticipatory: 3,
	registry.CapacityStructural:   7,
}

// BucketWidth returns the dedupe bucket width for a capacity.
func BucketWidth(c registry.Capacity) time.Duration {
	return time.Duration(bucketDays[c]) * 24 * time.Hour
}

// #endregion buckets

// #region compute

// Compute derives the fingerprint for a non-blocked decision. Reason codes
// are sorted so code ordering never changes the hash, and the as-of time is
// floored to the capacity's bucket so re-evaluations inside one bucket
// collapse to the same task.
func Compute(loopID string, capacity registry.Capacity, template string, reasonCodes []string, window scores.Window, asOf time.Time) string {
	widthMs := BucketWidth(capacity).Milliseconds()
	bucketed := asOf.UnixMilli() / widthMs * widthMs

	payload := strings.Join([]string{
		loopID,
		string(capacity),
		template,
		joinSorted(reasonCodes),
		string(window),
		strconv.FormatInt(bucketed, 10),
	}, "|")
	return sum(payload)
}

// ComputeBlocked derives the fingerprint for a blocked decision. The time
// bucket is deliberately omitted: all blocked decisions for the same
// loop/window/reason set collapse to one fingerprint until the reasons change.
func ComputeBlocked(loopID string, reasons []string, window scores.Window) string {
	payload := strings.Join([]string{
		loopID,
		"BLOCKED",
		joinSorted(reasons),
		string(window),
	}, "|")
	return sum(payload)
}

// #endregion compute

// #region helpers

func joinSorted(parts []string) string {
	sorted := append([]string(nil), parts...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func sum(payload string) string {
	digest := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(digest[:])
}

// #endregion helpers
