package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Serves clipper-shaped listing fixtures so the ingest daemon can run
// against localhost instead of a live community API. A request for
// /r/<community>/<kind>.json answers with data/<community>.json; search
// requests reuse the same fixture.
func main() {
	var (
		addr    = flag.String("addr", ":9000", "listen address")
		dataDir = flag.String("data", "data", "directory of <community>.json fixtures")
	)
	flag.Parse()

	http.HandleFunc("/r/", func(w http.ResponseWriter, r *http.Request) {
		// /r/aivideos/new.json -> community "aivideos"
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 {
			http.Error(w, "expected /r/<community>/<listing>.json", http.StatusNotFound)
			return
		}
		community := parts[1]

		b, err := os.ReadFile(filepath.Join(*dataDir, community+".json"))
		if err != nil {
			http.Error(w, "no fixture for community "+community, http.StatusNotFound)
			return
		}

		// validate JSON so a bad fixture doesn't silently break
		var tmp any
		if err := json.Unmarshal(b, &tmp); err != nil {
			http.Error(w, "fixture invalid JSON: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	})

	log.Printf("mirror-server listening on %s (fixtures from %s)", *addr, *dataDir)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
