package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/poiesic/librarian/ingestion"
)

// loadFragments reads a JSONL file with one ingestion.Fragment per line.
// Blank lines are skipped.
func loadFragments(path string) ([]*ingestion.Fragment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fragment file: %w", err)
	}
	defer f.Close()

	var fragments []*ingestion.Fragment
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var fragment ingestion.Fragment
		if err := json.Unmarshal(raw, &fragment); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		fragments = append(fragments, &fragment)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return fragments, nil
}

// seedFragments is a small mixed-topic corpus, enough to exercise all three
// retrieval modes locally.
func seedFragments() []*ingestion.Fragment {
	entries := []struct {
		title string
		text  string
	}{
		{"Suspension Bridges", "Suspension bridges carry their deck from cables draped between towers, letting a light structure span very long distances."},
		{"Spider Silk", "Spider silk achieves tensile strength comparable to steel at a fraction of the weight, inspiring engineered fibers."},
		{"Roman Aqueducts", "Roman aqueducts moved water across valleys on stacked stone arches, some of which still stand after two thousand years."},
		{"Ant Colony Optimization", "Ant colony optimization mimics pheromone trails to find short paths through large search spaces."},
		{"Pack Routing", "Delivery fleets use heuristic routing to cut fuel costs, revisiting classic traveling salesman ideas at city scale."},
		{"Honeycomb Structure", "Hexagonal honeycomb cells enclose the most volume with the least wax, a geometry borrowed by aerospace panels."},
		{"Gothic Cathedrals", "Flying buttresses let gothic cathedrals push walls higher by carrying roof thrust to external piers."},
		{"Tensegrity", "Tensegrity structures hold their shape through isolated struts suspended in a continuous network of cables."},
		{"Mycelial Networks", "Forest fungi connect tree roots into networks that trade nutrients, resembling market exchanges."},
		{"Neural Pruning", "Developing brains overproduce synapses and then prune them, keeping only the connections that carry traffic."},
		{"Shipping Containers", "Standardized containers collapsed the cost of ocean freight by making every port, crane, and ship interchangeable."},
		{"Printing Press", "Movable type turned books from artisanal objects into mass commodities and rewired how ideas spread."},
		{"Telegraph Networks", "Nineteenth century telegraph lines compressed the time for news to cross continents from weeks to minutes."},
		{"Jazz Improvisation", "Jazz soloists improvise within chord changes, balancing novelty against the listener's expectations."},
		{"Coral Reefs", "Coral reefs are built by tiny polyps whose accumulated skeletons shelter a quarter of marine species."},
		{"Glacial Erosion", "Glaciers carve U-shaped valleys as embedded rock scours the bedrock beneath the moving ice."},
		{"Sourdough Cultures", "A sourdough starter is a stable community of wild yeast and bacteria maintained by regular feeding."},
		{"Antibiotic Resistance", "Bacteria evolve resistance fastest where antibiotics are used widely and incompletely."},
		{"Compound Interest", "Compound interest grows principal exponentially because each period's gains themselves earn interest."},
		{"Error Correcting Codes", "Error correcting codes add structured redundancy so receivers can reconstruct corrupted messages."},
		{"Immune Memory", "After an infection the immune system keeps memory cells that respond faster on the next encounter."},
		{"Library Classification", "Library classification systems shelve related subjects together so browsing neighbors yields discoveries."},
		{"Desire Paths", "Desire paths worn across lawns record where people actually walk, often contradicting planned walkways."},
		{"Murmurations", "Starling murmurations emerge from each bird tracking only a handful of nearest neighbors."},
		{"Traffic Waves", "Phantom traffic jams propagate backward through dense traffic like compression waves in a fluid."},
		{"Keystone Species", "Removing a keystone species like the sea otter collapses whole food webs far beyond its own niche."},
		{"Canal Locks", "Canal locks lift boats between water levels by impounding water in stepped chambers."},
		{"Division of Labor", "Pin factories described by early economists multiplied output by splitting work into narrow repeated tasks."},
		{"Carrier Pigeons", "Before radio, armies moved messages by pigeon, trading bandwidth for reliability under fire."},
		{"Seed Banks", "Seed banks store crop diversity against catastrophe, a hedge resembling financial portfolio insurance."},
	}

	fragments := make([]*ingestion.Fragment, len(entries))
	for i, e := range entries {
		fragments[i] = &ingestion.Fragment{
			Text:     e.text,
			Metadata: map[string]string{"title": e.title},
		}
	}
	return fragments
}
