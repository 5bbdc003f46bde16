// Package mockdata generates deterministic connector output for local runs,
// fixtures and integration tests.
//
// Each physical station is placed on a jittered grid at least 200 m from its
// neighbours and reported by a random subset of sources, with the kind of
// drift real sources show: a few metres of positional noise, name suffixes,
// legal-form operator names, missing fields, and different plug labels.
package mockdata

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
)

const (
	gridSpacingMeters = 300.0
	gridJitterMeters  = 50.0
	sourceNoiseMeters = 12.0

	// Berlin Mitte.
	originLat = 52.5200
	originLon = 13.4050

	metersPerDegree = 111_320.0
)

var (
	places    = []string{"Alexanderplatz", "Hauptbahnhof", "Rathaus", "Marktplatz", "Parkhaus Mitte", "Bahnhof Ost", "Stadion", "Klinikum", "Messe", "Zoo", "Rosenthaler Platz", "Friedrichstraße"}
	suffixes  = []string{"Ladestation", "Ladepark", "Schnelllader", "P+R"}
	operators = []string{"EnBW AG", "Stadtwerke Berlin GmbH", "Ionity GmbH", "Tesla Germany GmbH", "Allego B.V.", "Vattenfall"}
	streets   = []string{"Hauptstraße", "Bahnhofstraße", "Gartenweg", "Schillerstraße", "Lindenallee", "Am Markt"}
	acPlugs   = []string{"Type 2", "Schuko"}
	dcPlugs   = []string{"CCS", "CHAdeMO"}
	acPowerKW = []float64{3.7, 11, 22}
	dcPowerKW = []float64{50, 150, 300}
	payments  = []string{"RFID", "App", "Kreditkarte", "Ad-hoc"}
	districts = []string{"Mitte", "Kreuzberg", "Pankow", "Neukölln", "Spandau"}
)

// Station is a generated physical station and the records reporting it.
type Station struct {
	Index   int
	Records []domain.Record
}

// Dataset is a generated set of per-source records.
type Dataset struct {
	Stations []Station
	// Invalid counts records generated without usable coordinates.
	Invalid int
}

// Input flattens the dataset into the merge input shape.
func (d Dataset) Input() map[domain.SourceID][]domain.Record {
	out := make(map[domain.SourceID][]domain.Record)
	for _, st := range d.Stations {
		for _, r := range st.Records {
			out[r.SourceID] = append(out[r.SourceID], r)
		}
	}
	return out
}

// Reported returns the number of stations reported with at least one valid
// record, which is the station count a correct merge produces.
func (d Dataset) Reported() int {
	n := 0
	for _, st := range d.Stations {
		for _, r := range st.Records {
			if r.Validate() == nil {
				n++
				break
			}
		}
	}
	return n
}

// Generate builds n stations from seed. The same seed always yields the same
// dataset.
func Generate(seed uint64, n int) Dataset {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	side := int(math.Ceil(math.Sqrt(float64(n))))

	ds := Dataset{Stations: make([]Station, 0, n)}
	for i := range n {
		row, col := i/side, i%side
		northM := float64(row)*gridSpacingMeters + (rng.Float64()*2-1)*gridJitterMeters
		eastM := float64(col)*gridSpacingMeters + (rng.Float64()*2-1)*gridJitterMeters
		lat, lon := offset(originLat, originLon, northM, eastM)

		st := genStation(rng, i, lat, lon)
		for _, r := range st.Records {
			if r.Validate() != nil {
				ds.Invalid++
			}
		}
		ds.Stations = append(ds.Stations, st)
	}
	return ds
}

func genStation(rng *rand.Rand, i int, lat, lon float64) Station {
	name := fmt.Sprintf("%s %d", places[rng.IntN(len(places))], i)
	operator := operators[rng.IntN(len(operators))]
	dc := rng.IntN(3) == 0
	plugs := []string{acPlugs[rng.IntN(len(acPlugs))]}
	power := []float64{acPowerKW[rng.IntN(len(acPowerKW))]}
	if dc {
		plugs = append(plugs, dcPlugs[rng.IntN(len(dcPlugs))])
		power = append(power, dcPowerKW[rng.IntN(len(dcPowerKW))])
	}
	addr := domain.Address{
		Street:   fmt.Sprintf("%s %d", streets[rng.IntN(len(streets))], 1+rng.IntN(120)),
		Postcode: fmt.Sprintf("1%04d", rng.IntN(10000)),
		Town:     "Berlin",
		State:    "Berlin",
		Country:  "DE",
	}
	capacity := 1 + rng.IntN(8)

	// Every station is reported by at least one source.
	reported := map[domain.SourceID]bool{}
	for _, s := range domain.DefaultSourcePriority {
		reported[s] = rng.IntN(4) != 0
	}
	if !reported[domain.SourceBNA] && !reported[domain.SourceOCM] && !reported[domain.SourceOSM] {
		reported[domain.DefaultSourcePriority[rng.IntN(3)]] = true
	}

	st := Station{Index: i}
	for _, source := range domain.DefaultSourcePriority {
		if !reported[source] {
			continue
		}
		rlat, rlon := offset(lat, lon, (rng.Float64()*2-1)*sourceNoiseMeters/2, (rng.Float64()*2-1)*sourceNoiseMeters/2)
		r := domain.Record{
			SourceID:   source,
			ExternalID: fmt.Sprintf("%s-%05d", strings.ToLower(string(source)), i),
			Latitude:   &rlat,
			Longitude:  &rlon,
			Name:       name,
			Operator:   operator,
			Address:    addr,
			PowerKW:    append([]float64(nil), power...),
			PlugTypes:  append([]string(nil), plugs...),
			Capacity:   capacity,
		}
		switch source {
		case domain.SourceBNA:
			r.Payment = payments[rng.IntN(len(payments))]
			r.Address.District = districts[i%len(districts)]
			r.TotalKW = slices.Max(power) * float64(capacity)
			r.RawAttributes = map[string]any{"inbetriebnahme": fmt.Sprintf("20%02d-01-01", 15+rng.IntN(10))}
		case domain.SourceOCM:
			r.Name = name + " " + suffixes[rng.IntN(len(suffixes))]
			r.Operator = strings.TrimSuffix(strings.TrimSuffix(operator, " GmbH"), " AG")
			r.Address = domain.Address{Street: addr.Street, Town: addr.Town, Country: addr.Country}
			r.PlugTypes = upper(plugs)
			r.AmperageA, r.VoltageV = []float64{32}, []float64{400}
			if dc {
				r.AmperageA = append(r.AmperageA, 125)
				r.VoltageV = append(r.VoltageV, 500)
			}
			r.RawAttributes = map[string]any{"uuid": fmt.Sprintf("ocm-%08x", rng.Uint32())}
		case domain.SourceOSM:
			if rng.IntN(2) == 0 {
				r.Name = ""
			}
			if rng.IntN(2) == 0 {
				r.Operator = ""
			}
			r.Address = domain.Address{}
			r.Capacity = 0
			r.RawAttributes = map[string]any{"amenity": "charging_station"}
			if rng.IntN(25) == 0 {
				r.Latitude, r.Longitude = nil, nil
			}
		}
		st.Records = append(st.Records, r)
	}
	return st
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}

// offset moves lat/lon by the given metres north and east.
func offset(lat, lon, northM, eastM float64) (float64, float64) {
	dLat := northM / metersPerDegree
	dLon := eastM / (metersPerDegree * math.Cos(lat*math.Pi/180))
	return lat + dLat, lon + dLon
}

// WriteFiles writes one "<SOURCE>__processed.json" file per source into dir.
func WriteFiles(dir string, input map[domain.SourceID][]domain.Record) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, source := range sortedSources(input) {
		data, err := json.MarshalIndent(input[source], "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", source, err)
		}
		path := filepath.Join(dir, string(source)+"__processed.json")
		if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func sortedSources(input map[domain.SourceID][]domain.Record) []domain.SourceID {
	out := make([]domain.SourceID, 0, len(input))
	for s := range input {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
