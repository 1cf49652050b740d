// Package web serves the merged dataset and the run report over a small
// read-only JSON API, for the review dashboard.
package web

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/nha-facilities/internal/config"
)

// Facility is one master record as served by the API. Only the columns the
// dashboard renders; the full row is in the CSV.
type Facility struct {
	MasterID       string  `json:"master_id"`
	Name           string  `json:"facility_name"`
	FacilityType   string  `json:"facility_type"`
	Ownership      string  `json:"ownership"`
	State          string  `json:"state"`
	District       string  `json:"district"`
	Pincode        string  `json:"pincode"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	HasGeo         bool    `json:"has_geo"`
	SourceDatasets string  `json:"source_datasets"`
}

// Server serves the merge outputs. The dataset is loaded once at startup;
// a new merge run means restarting the server.
type Server struct {
	cfg        *config.MergeConfig
	router     *mux.Router
	httpServer *http.Server

	report     json.RawMessage
	facilities []Facility
	byState    map[string]int
}

// NewServer loads the output files and builds the router.
func NewServer(cfg *config.MergeConfig, addr string) (*Server, error) {
	s := &Server{cfg: cfg, byState: make(map[string]int)}

	reportData, err := os.ReadFile(cfg.ReportPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", cfg.ReportPath, err)
	}
	s.report = reportData

	if err := s.loadFacilities(cfg.OutputPath); err != nil {
		return nil, err
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// loadFacilities reads the master CSV into memory.
func (s *Server) loadFacilities(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read dataset header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		f := Facility{
			MasterID:       get(row, "master_id"),
			Name:           get(row, "facility_name"),
			FacilityType:   get(row, "facility_type"),
			Ownership:      get(row, "ownership"),
			State:          get(row, "state"),
			District:       get(row, "district"),
			Pincode:        get(row, "pincode"),
			SourceDatasets: get(row, "source_datasets"),
		}
		if lat, err := strconv.ParseFloat(get(row, "latitude"), 64); err == nil {
			if lon, err := strconv.ParseFloat(get(row, "longitude"), 64); err == nil {
				f.Latitude, f.Longitude, f.HasGeo = lat, lon, true
			}
		}
		s.facilities = append(s.facilities, f)
		s.byState[f.State]++
	}
	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/report", s.getReport).Methods("GET")
	api.HandleFunc("/facilities", s.searchFacilities).Methods("GET")
	api.HandleFunc("/facilities/{id}", s.getFacility).Methods("GET")
	api.HandleFunc("/stats", s.getStats).Methods("GET")
}

// getReport returns the merge report verbatim.
func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(s.report)
}

// searchFacilities filters by name substring and state.
func (s *Server) searchFacilities(w http.ResponseWriter, r *http.Request) {
	q := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("q")))
	state := strings.TrimSpace(r.URL.Query().Get("state"))

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if n > 500 {
			n = 500
		}
		limit = n
	}

	var results []Facility
	for i := range s.facilities {
		f := &s.facilities[i]
		if state != "" && !strings.EqualFold(f.State, state) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToUpper(f.Name), q) {
			continue
		}
		results = append(results, *f)
		if len(results) >= limit {
			break
		}
	}

	writeJSON(w, map[string]interface{}{
		"count":      len(results),
		"facilities": results,
	})
}

// getFacility returns one master record by ID.
func (s *Server) getFacility(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for i := range s.facilities {
		if s.facilities[i].MasterID == id {
			writeJSON(w, &s.facilities[i])
			return
		}
	}
	http.Error(w, "facility not found", http.StatusNotFound)
}

// getStats returns dataset-level counts.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	geocoded := 0
	for i := range s.facilities {
		if s.facilities[i].HasGeo {
			geocoded++
		}
	}
	writeJSON(w, map[string]interface{}{
		"total_facilities": len(s.facilities),
		"geocoded":         geocoded,
		"by_state":         s.byState,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		fmt.Printf("Starting server on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
		}
	}()

	<-stop
	fmt.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		fmt.Printf("Server shutdown error: %v\n", err)
	}

	fmt.Println("Server stopped")
	return nil
}
