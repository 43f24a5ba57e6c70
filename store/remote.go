package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/golang/glog"

	"github.com/openbeacon/surveylog/geo"
	"github.com/openbeacon/surveylog/radio"
)

const (
	contentType     = "application/json"
	cellsEndpoint   = "surveylog/v1/cells"
	wifisEndpoint   = "surveylog/v1/wifis"
	sessionEndpoint = "surveylog/v1/session"
)

// Remote ships observation batches to a surveylog receiver server. One POST
// per batch keeps the server-side transaction boundary identical to the
// local stores.
type Remote struct {
	// Server is the URL scheme, address and port of the receiver.
	Server string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

type collectResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

func (r *Remote) post(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling batch to JSON: %w", err)
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(r.Server, "/"), endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("POSTing batch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading POST response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server rejected batch: %s (%s)", resp.Status, strings.TrimSpace(string(respBody)))
	}

	ack := collectResponse{}
	json.Unmarshal(respBody, &ack)
	glog.V(1).Infof("submitted %d records to server %s", ack.Count, r.Server)
	return nil
}

func (r *Remote) StoreCellObservations(ctx context.Context, batch []radio.CellObservation, begin, end geo.Position) error {
	return r.post(ctx, cellsEndpoint, CellBatchRequest{Begin: begin, End: end, Cells: batch})
}

func (r *Remote) StoreWifiObservations(ctx context.Context, batch []radio.WifiObservation, begin, end geo.Position) error {
	return r.post(ctx, wifisEndpoint, WifiBatchRequest{Begin: begin, End: end, Wifis: batch})
}

func (r *Remote) StoreSessionMeta(ctx context.Context, meta radio.SessionMeta) error {
	return r.post(ctx, sessionEndpoint, meta)
}
