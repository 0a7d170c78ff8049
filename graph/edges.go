package graph

import (
	"sort"
	"time"

	"github.com/taigatrans/routegrid/config"
	"github.com/taigatrans/routegrid/internal"
	"github.com/taigatrans/routegrid/model"
)

// edgeMap is an insertion-ordered, insert-only map. The three derivation
// phases run in strict precedence order and the first writer for a dedup key
// wins; later phases never overwrite.
type edgeMap struct {
	order []string
	byKey map[string]model.Edge
}

func newEdgeMap() *edgeMap {
	return &edgeMap{byKey: map[string]model.Edge{}}
}

// insert adds the edge unless the key is taken. Reports whether it was added.
func (m *edgeMap) insert(key string, e model.Edge) bool {
	if _, ok := m.byKey[key]; ok {
		return false
	}
	m.byKey[key] = e
	m.order = append(m.order, key)
	return true
}

// edges returns all edges in insertion order.
func (m *edgeMap) edges() []model.Edge {
	out := make([]model.Edge, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.byKey[k])
	}
	return out
}

func edgeKey(from, to, discriminator string) string {
	return from + "|" + to + "|" + discriminator
}

// deriveEdges runs the three phases over the loaded inventory and returns the
// deduplicated edge list.
func deriveEdges(stops []model.Stop, routes []model.Route, flights []model.Flight,
	cls Classifier, cfg config.GraphConfig, month time.Month) []model.Edge {

	routesByID := make(map[string]model.Route, len(routes))
	for _, r := range routes {
		routesByID[r.ID] = r
	}
	m := newEdgeMap()
	addFlightEdges(m, flights, routesByID, cfg, month)
	addTopologyEdges(m, routes, cfg, month)
	addTransferEdges(m, stops, cls)
	return m.edges()
}

// addFlightEdges derives edges from scheduled trips: the strongest signal,
// inserted first.
func addFlightEdges(m *edgeMap, flights []model.Flight, routesByID map[string]model.Route,
	cfg config.GraphConfig, month time.Month) {

	for _, f := range flights {
		disc := f.RouteID
		if disc == "" {
			disc = "direct"
		}
		route := routesByID[f.RouteID]
		weight := scheduleWeight(f, cfg)
		weight = seasonalOverride(weight, route, month)
		m.insert(edgeKey(f.FromStopID, f.ToStopID, disc), model.Edge{
			From:       f.FromStopID,
			To:         f.ToStopID,
			WeightMin:  weight,
			DistanceKM: route.DistanceKM,
			Mode:       route.Mode,
			RouteID:    f.RouteID,
		})
	}
}

// scheduleWeight reads travel time off the trip's departure and arrival time
// of day, wrapping overnight trips and falling back to a default when the
// times are unusable.
func scheduleWeight(f model.Flight, cfg config.GraphConfig) float64 {
	dep, errDep := internal.ParseHHMM(f.Departure)
	arr, errArr := internal.ParseHHMM(f.Arrival)
	if errDep != nil || errArr != nil {
		return cfg.DefaultFlightWeightMin
	}
	w := float64(arr - dep)
	if w < 0 {
		w += 24 * 60 // overnight wrap
	}
	if w <= 0 || w >= cfg.MaxFlightWeightMin {
		return cfg.DefaultFlightWeightMin
	}
	return w
}

// addTopologyEdges covers routes with no scheduled trips: consecutive pairs
// of the stop sequence, each carrying the route duration.
func addTopologyEdges(m *edgeMap, routes []model.Route, cfg config.GraphConfig, month time.Month) {
	for _, r := range routes {
		weight := float64(r.DurationMin)
		if weight <= 0 {
			weight = cfg.DefaultTopologyWeightMin
		}
		weight = seasonalOverride(weight, r, month)
		seq := r.Seq()
		for i := 0; i+1 < len(seq); i++ {
			m.insert(edgeKey(seq[i], seq[i+1], r.ID), model.Edge{
				From:       seq[i],
				To:         seq[i+1],
				WeightMin:  weight,
				DistanceKM: r.DistanceKM,
				Mode:       r.Mode,
				RouteID:    r.ID,
			})
		}
	}
}

// addTransferEdges links every pair of stops sharing a city, in both
// directions. Runs last: a real scheduled or topology edge between two
// same-city stops always outranks the synthetic transfer.
func addTransferEdges(m *edgeMap, stops []model.Stop, cls Classifier) {
	byCity := map[string][]model.Stop{}
	for _, st := range stops {
		if st.CityID != "" {
			byCity[st.CityID] = append(byCity[st.CityID], st)
		}
	}
	citiesSorted := make([]string, 0, len(byCity))
	for city := range byCity {
		citiesSorted = append(citiesSorted, city)
	}
	sort.Strings(citiesSorted)
	for _, city := range citiesSorted {
		group := byCity[city]
		if len(group) < 2 {
			continue
		}
		for i := range group {
			for j := range group {
				if i == j {
					continue
				}
				from, to := group[i], group[j]
				m.insert(edgeKey(from.ID, to.ID, "TRANSFER"), model.Edge{
					From:      from.ID,
					To:        to.ID,
					WeightMin: TransferWeight(cls.Kind(from), cls.Kind(to)),
					Mode:      model.ModeTransfer,
				})
			}
		}
	}
}

// buildAdjacency converts the edge list into the published artifact shape.
func buildAdjacency(nodeIDs []string, edges []model.Edge) map[string][]model.Neighbor {
	adj := make(map[string][]model.Neighbor, len(nodeIDs))
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], model.Neighbor{
			ID:     e.To,
			Weight: e.WeightMin,
			Metadata: model.NeighborMeta{
				DistanceKM: e.DistanceKM,
				Mode:       e.Mode,
				RouteID:    e.RouteID,
			},
		})
	}
	return adj
}

// deriveNodes projects stops onto graph nodes. IsVirtual is re-derived here
// as "no city" rather than copied from the stop flag; the route-search
// service depends on this exact signal, so the two definitions are kept
// separate on purpose.
func deriveNodes(stops []model.Stop) ([]model.Node, map[string]model.Node) {
	nodes := make([]model.Node, 0, len(stops))
	index := make(map[string]model.Node, len(stops))
	for _, st := range stops {
		n := model.Node{
			ID:        st.ID,
			Coord:     st.Coord,
			CityID:    st.CityID,
			IsVirtual: st.CityID == "",
		}
		nodes = append(nodes, n)
		index[n.ID] = n
	}
	return nodes, index
}
