package handlers

import (
	"log"
	"net/http"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"

	geojson "github.com/paulmach/go.geojson"
)

type NetworkHandler struct {
	View ports.NetworkView
}

// GeoJSON renders intersections as points and roads as line strings with their costs.
func (h *NetworkHandler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	snap, err := h.View.Snapshot()
	if err != nil {
		log.Printf("network snapshot failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	b, err := featureCollection(snap).MarshalJSON()
	if err != nil {
		log.Printf("encode geojson failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		log.Printf("write failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func featureCollection(snap domain.NetworkSnapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, in := range snap.Intersections {
		f := geojson.NewPointFeature([]float64{in.Pos.X(), in.Pos.Y()})
		f.ID = in.ID
		f.SetProperty("kind", "intersection")
		f.SetProperty("spawn_weight", in.SpawnWeight)
		fc.AddFeature(f)
	}

	for _, road := range snap.Roads {
		coords := make([][]float64, 0, len(road.Geometry))
		for _, p := range road.Geometry {
			coords = append(coords, []float64{p.X(), p.Y()})
		}

		f := geojson.NewLineStringFeature(coords)
		f.ID = road.ID.String()
		f.SetProperty("kind", "road")
		f.SetProperty("length", road.Length)
		f.SetProperty("cost_forward", road.StaticCost[domain.Forward]+road.DynamicCost[domain.Forward])
		f.SetProperty("cost_backward", road.StaticCost[domain.Backward]+road.DynamicCost[domain.Backward])
		f.SetProperty("dynamic_forward", road.DynamicCost[domain.Forward])
		f.SetProperty("dynamic_backward", road.DynamicCost[domain.Backward])
		f.SetProperty("vehicles_forward", road.Occupancy[domain.Forward])
		f.SetProperty("vehicles_backward", road.Occupancy[domain.Backward])
		fc.AddFeature(f)
	}

	return fc
}
