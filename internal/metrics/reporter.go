package metrics

import (
	"github.com/desertthunder/hsrx/internal/models"
)

// Writer accepts points. [Batcher] implements it.
type Writer interface {
	WritePoint(series string, values map[string]any, tags map[string]string)
}

// Series prefixes used by the site and the embedded player.
const (
	SitePrefix   = "hsreplaynet_"
	PlayerPrefix = "joust_"
)

// Reporter names series with a prefix and attaches default tags.
// A nil Reporter or one without a writer discards points.
type Reporter struct {
	w      Writer
	prefix string
	tags   map[string]string
}

// NewReporter creates a [Reporter] writing to w.
func NewReporter(w Writer, prefix string, tags map[string]string) *Reporter {
	return &Reporter{w: w, prefix: prefix, tags: tags}
}

// WritePoint writes series with the reporter's prefix. Tags passed here
// override default tags with the same key.
func (r *Reporter) WritePoint(series string, values map[string]any, tags map[string]string) {
	if r == nil || r.w == nil {
		return
	}
	merged := make(map[string]string, len(r.tags)+len(tags))
	for k, v := range r.tags {
		merged[k] = v
	}
	for k, v := range tags {
		merged[k] = v
	}
	r.w.WritePoint(r.prefix+series, values, merged)
}

// ShareLedger remembers which replays were already shared on a network.
type ShareLedger interface {
	RecordOnce(event *models.ShareEvent) (bool, error)
}

// TrackShare writes a "shares" point the first time shortID is shared on
// network. Repeated shares are recorded nowhere and return false.
func TrackShare(r *Reporter, ledger ShareLedger, shortID, network string, linkToTurn bool) (bool, error) {
	first, err := ledger.RecordOnce(&models.ShareEvent{ShortID: shortID, Network: network, LinkToTurn: linkToTurn})
	if err != nil || !first {
		return false, err
	}
	r.WritePoint("shares", map[string]any{"count": 1, "link_to_turn": linkToTurn}, map[string]string{"network": network})
	return true, nil
}
