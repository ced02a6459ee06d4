package fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/geoforge/s2fetch/fetcher/entities"
	"github.com/geoforge/s2fetch/service"
	"github.com/geoforge/s2fetch/service/log"
	"github.com/gorilla/mux"
)

const requestJSONField = "request"

// AddHandler registers the fetch routes on the router
func (f *Fetcher) AddHandler(r *mux.Router) {
	r.HandleFunc("/fetch", f.FetchHandler).Methods("POST")
}

func readField(req *http.Request, field string) ([]byte, error) {
	if req.FormValue(field) != "" {
		return []byte(req.FormValue(field)), nil
	}
	file, _, err := req.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var buf bytes.Buffer
	io.Copy(&buf, file)
	return buf.Bytes(), nil
}

func loadRequest(req *http.Request) (entities.FetchRequest, error) {
	fetchReq := entities.FetchRequest{BufferMeters: 250}
	requestJSON, err := readField(req, requestJSONField)
	if err != nil || len(requestJSON) == 0 {
		return fetchReq, fmt.Errorf("loadRequest: missing required field: '%s' (application/json)", requestJSONField)
	}
	if err := json.Unmarshal(requestJSON, &fetchReq); err != nil {
		return fetchReq, fmt.Errorf("loadRequest: %w\nJSON:\n%s", err, requestJSON)
	}
	if err := fetchReq.Validate(); err != nil {
		return fetchReq, fmt.Errorf("loadRequest: %w", err)
	}
	return fetchReq, nil
}

// aoiProvider builds the AOIProvider of the request: a feature layer when a prefix
// field is given, the request geometry with the single prefix otherwise
func aoiProvider(fetchReq entities.FetchRequest) (AOIProvider, error) {
	if fetchReq.PrefixField != "" {
		return requestFeaturesAOI{request: fetchReq}, nil
	}
	g, err := service.UnmarshalGeometry(fetchReq.AOI)
	if err != nil {
		return nil, fmt.Errorf("aoiProvider: %w", err)
	}
	return requestGeometryAOI{prefix: fetchReq.Prefix, geometry: g}, nil
}

// FetchHandler runs a fetch from a FetchRequest and responds with the json reports
func (f *Fetcher) FetchHandler(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	fetchReq, err := loadRequest(req)
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "%v", err)
		return
	}

	aoi, err := aoiProvider(fetchReq)
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "%v", err)
		return
	}

	reports, err := f.FetchAll(ctx, aoi, FetchParams{
		StartTime:    fetchReq.StartTime,
		EndTime:      fetchReq.EndTime,
		BufferMeters: fetchReq.BufferMeters,
		OutputDir:    fetchReq.OutputDir,
		Collections:  f.collections(),
	})
	if err != nil {
		log.Logger(ctx).Sugar().Errorf("FetchHandler: %v", err)
		w.WriteHeader(500)
		fmt.Fprintf(w, "%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reports)
}
