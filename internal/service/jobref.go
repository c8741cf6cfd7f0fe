package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/widegest/printflow/internal/domain"
)

// jobRefPattern matches the correlation identifiers the finishing system
// echoes back on callbacks. Only the preprint and print phases report
// through this channel.
var jobRefPattern = regexp.MustCompile(`^(PREPRINT|PRINT)-ORD(\d+)-IT(\d+)-`)

// BuildJobRef generates the correlation identifier for one dispatch:
// {PHASE}-ORD{orderID}-IT{itemID}-{unix}. Generated fresh per call and not
// persisted before the send; uniqueness rests on the item id, the timestamp
// only disambiguates re-dispatches.
func BuildJobRef(phase domain.Phase, orderID, itemID int64, at time.Time) string {
	return fmt.Sprintf("%s-ORD%d-IT%d-%d", phase.Name(), orderID, itemID, at.Unix())
}

// ParseJobRef decodes a correlation identifier back into its phase and the
// internal order/item ids. ok is false for anything the pattern rejects.
func ParseJobRef(jobID string) (phase domain.Phase, orderID, itemID int64, ok bool) {
	m := jobRefPattern.FindStringSubmatch(jobID)
	if m == nil {
		return 0, 0, 0, false
	}
	switch m[1] {
	case "PREPRINT":
		phase = domain.PhasePreprint
	case "PRINT":
		phase = domain.PhasePrint
	}
	orderID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, 0, 0, false
	}
	itemID, err = strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return 0, 0, 0, false
	}
	return phase, orderID, itemID, true
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func sanitizeOrderCode(code string) string {
	return unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(code), "")
}

// OutputFilename computes the external filename for the print asset at
// assetIndex on a line holding printAssetCount print assets. One asset gets
// {code}-{position}.png, a pair gets _F and _R suffixes, any other count has
// no defined filename and yields nil.
func OutputFilename(orderCode string, position, assetIndex, printAssetCount int) *string {
	code := sanitizeOrderCode(orderCode)
	var name string
	switch printAssetCount {
	case 1:
		name = fmt.Sprintf("%s-%d.png", code, position)
	case 2:
		suffix := "_F"
		if assetIndex == 1 {
			suffix = "_R"
		}
		name = fmt.Sprintf("%s-%d%s.png", code, position, suffix)
	default:
		return nil
	}
	return &name
}
