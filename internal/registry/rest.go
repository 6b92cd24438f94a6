package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// RESTStore talks to an external model tracking server over HTTP.
type RESTStore struct {
	base string
	rest *resty.Client
}

// NewRESTStore creates a store client for the tracking server at base.
func NewRESTStore(base string, timeout time.Duration) *RESTStore {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &RESTStore{base: base, rest: r}
}

type createVersionReq struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	RunID  string `json:"run_id"`
}

type storeResp struct {
	Code    int          `json:"code"`
	Msg     string       `json:"msg"`
	Version ModelVersion `json:"version"`
}

type listResp struct {
	Code     int            `json:"code"`
	Msg      string         `json:"msg"`
	Versions []ModelVersion `json:"versions"`
}

func (s *RESTStore) CreateVersion(ctx context.Context, name, runRef, runID string) (ModelVersion, error) {
	resp := &storeResp{}
	res, err := s.rest.R().
		SetContext(ctx).
		SetBody(createVersionReq{Name: name, Source: runRef, RunID: runID}).
		SetResult(resp).
		Post(s.base + "/api/v1/model-versions/create")
	if err != nil {
		return ModelVersion{}, fmt.Errorf("tracking store unreachable: %w", err)
	}
	if res.StatusCode() != 200 || resp.Code != 0 {
		return ModelVersion{}, fmt.Errorf("tracking store: status %d code %d %s", res.StatusCode(), resp.Code, resp.Msg)
	}
	return resp.Version, nil
}

func (s *RESTStore) SetStage(ctx context.Context, name string, version int, stage Stage) error {
	resp := &storeResp{}
	res, err := s.rest.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"name":    name,
			"version": version,
			"stage":   string(stage),
		}).
		SetResult(resp).
		Post(s.base + "/api/v1/model-versions/transition-stage")
	if err != nil {
		return fmt.Errorf("tracking store unreachable: %w", err)
	}
	if res.StatusCode() != 200 || resp.Code != 0 {
		return fmt.Errorf("tracking store: status %d code %d %s", res.StatusCode(), resp.Code, resp.Msg)
	}
	return nil
}

func (s *RESTStore) ListVersions(ctx context.Context, name string) ([]ModelVersion, error) {
	resp := &listResp{}
	res, err := s.rest.R().
		SetContext(ctx).
		SetQueryParam("name", name).
		SetResult(resp).
		Get(s.base + "/api/v1/model-versions/search")
	if err != nil {
		return nil, fmt.Errorf("tracking store unreachable: %w", err)
	}
	if res.StatusCode() != 200 || resp.Code != 0 {
		return nil, fmt.Errorf("tracking store: status %d code %d %s", res.StatusCode(), resp.Code, resp.Msg)
	}
	return resp.Versions, nil
}
