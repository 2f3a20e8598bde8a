package flood

import (
	"sort"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/samber/lo"
)

// View is the set of peers known to participate in each topic. Entries are
// never removed. A View is owned by a single goroutine and is not locked.
type View struct {
	topics map[string]map[peer.ID]struct{}
}

func NewView() *View {
	return &View{topics: make(map[string]map[peer.ID]struct{})}
}

// Add records p under topic and reports whether it was not known yet.
func (v *View) Add(topic string, p peer.ID) bool {
	set, ok := v.topics[topic]
	if !ok {
		set = make(map[peer.ID]struct{})
		v.topics[topic] = set
	}
	if _, ok := set[p]; ok {
		return false
	}
	set[p] = struct{}{}
	return true
}

// Contains reports whether p is in the view of topic.
func (v *View) Contains(topic string, p peer.ID) bool {
	_, ok := v.topics[topic][p]
	return ok
}

// Peers returns a sorted snapshot of the view of topic.
func (v *View) Peers(topic string) []peer.ID {
	peers := lo.Keys(v.topics[topic])
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers
}

// All returns every peer of every topic, sorted and without duplicates.
func (v *View) All() []peer.ID {
	peers := lo.Uniq(lo.FlatMap(lo.Values(v.topics), func(set map[peer.ID]struct{}, _ int) []peer.ID {
		return lo.Keys(set)
	}))
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers
}

func (v *View) Len(topic string) int {
	return len(v.topics[topic])
}

// Known reports whether p is in the view of any topic.
func (v *View) Known(p peer.ID) bool {
	return lo.SomeBy(lo.Values(v.topics), func(set map[peer.ID]struct{}) bool {
		_, ok := set[p]
		return ok
	})
}
